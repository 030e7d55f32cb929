// Package facematch selects the face to recognize in a frame and turns
// nearest enrolled samples into an identity guess.
package facematch

// Face is one face detected in a frame by the embedding server.
type Face struct {
	BBox      []float64 // [x1, y1, x2, y2] in pixels of the analysed frame
	DetScore  float64
	Embedding []float32
}

// Match is the identity assigned to a face.
type Match struct {
	EmployeeID string
	Confidence float64 // share of the vote weight won by EmployeeID, 0..1
	Distance   float64 // distance of the closest sample of EmployeeID
	Votes      int
}
