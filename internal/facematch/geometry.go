package facematch

// FaceSize returns the width and height of a [x1, y1, x2, y2] bounding box.
func FaceSize(bbox []float64) (float64, float64) {
	if len(bbox) != 4 {
		return 0, 0
	}
	return max(bbox[2]-bbox[0], 0), max(bbox[3]-bbox[1], 0)
}

// ScaleBBox maps a bounding box detected on a resized frame back to the
// original frame dimensions.
func ScaleBBox(bbox []float64, fromWidth, fromHeight, toWidth, toHeight int) []float64 {
	if len(bbox) != 4 || fromWidth <= 0 || fromHeight <= 0 {
		return bbox
	}
	sx := float64(toWidth) / float64(fromWidth)
	sy := float64(toHeight) / float64(fromHeight)
	return []float64{bbox[0] * sx, bbox[1] * sy, bbox[2] * sx, bbox[3] * sy}
}

// BestFace returns the face with the highest detection score among faces at
// least minSize pixels on both sides and scoring at least minScore.
// The second return value is false when no face qualifies.
func BestFace(faces []Face, minSize, minScore float64) (Face, bool) {
	var best Face
	found := false
	for _, f := range faces {
		if len(f.Embedding) == 0 || f.DetScore < minScore {
			continue
		}
		w, h := FaceSize(f.BBox)
		if w < minSize || h < minSize {
			continue
		}
		if !found || f.DetScore > best.DetScore {
			best = f
			found = true
		}
	}
	return best, found
}
