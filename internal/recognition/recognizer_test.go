package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

type fakeDetector struct {
	faces    []facematch.Face
	err      error
	lastSize int
}

func (f *fakeDetector) DetectFaces(_ context.Context, imageData []byte) ([]facematch.Face, error) {
	f.lastSize = len(imageData)
	return f.faces, f.err
}

type fakeSearcher struct {
	neighbors []database.Neighbor
	err       error
	query     []float32
}

func (f *fakeSearcher) Search(query []float32, k int, maxDistance float64) ([]database.Neighbor, error) {
	f.query = query
	return f.neighbors, f.err
}

func testOptions() Options {
	return Options{MaxFrameSize: 100, MinFaceSize: 40, MinDetScore: 0.5, Neighbors: 3, MaxDistance: 0.5}
}

func TestRecognizer_Guess(t *testing.T) {
	big := facematch.Face{BBox: []float64{0, 0, 30, 30}, DetScore: 0.9, Embedding: []float32{1, 0}}
	bigger := facematch.Face{BBox: []float64{40, 0, 80, 40}, DetScore: 0.95, Embedding: []float32{0, 1}}
	small := facematch.Face{BBox: []float64{0, 0, 10, 10}, DetScore: 0.99, Embedding: []float32{1, 1}}
	weak := facematch.Face{BBox: []float64{0, 0, 40, 40}, DetScore: 0.3, Embedding: []float32{1, 1}}
	votes := []database.Neighbor{
		{SampleID: 1, EmployeeID: "101", Distance: 0.1},
		{SampleID: 2, EmployeeID: "101", Distance: 0.2},
		{SampleID: 3, EmployeeID: "102", Distance: 0.3},
	}

	tests := []struct {
		name      string
		faces     []facematch.Face
		neighbors []database.Neighbor
		want      string
		wantQuery []float32
	}{
		{"no faces", nil, votes, attendance.NoFace, nil},
		{"face too small on captured frame", []facematch.Face{small}, votes, attendance.NoFace, nil},
		{"low detection score", []facematch.Face{weak}, votes, attendance.NoFace, nil},
		{"no sample within distance", []facematch.Face{big}, nil, constants.UnknownLabel, []float32{1, 0}},
		{"vote winner", []facematch.Face{big}, votes, "101", []float32{1, 0}},
		{"best face chosen", []facematch.Face{big, small, bigger}, votes, "101", []float32{0, 1}},
	}

	frame := pngFrame(t, 200, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{neighbors: tt.neighbors}
			r := NewRecognizer(&fakeDetector{faces: tt.faces}, searcher, testOptions())

			got, err := r.Guess(context.Background(), frame)
			if err != nil {
				t.Fatalf("Guess() error = %v", err)
			}
			if got.Label != tt.want {
				t.Errorf("Label = %q, want %q", got.Label, tt.want)
			}
			if got.Faces != len(tt.faces) {
				t.Errorf("Faces = %d, want %d", got.Faces, len(tt.faces))
			}
			if tt.wantQuery != nil {
				if len(searcher.query) != len(tt.wantQuery) || searcher.query[0] != tt.wantQuery[0] {
					t.Errorf("searched with %v, want %v", searcher.query, tt.wantQuery)
				}
			}
		})
	}
}

func TestRecognizer_GuessMatchDetails(t *testing.T) {
	face := facematch.Face{BBox: []float64{0, 0, 50, 50}, DetScore: 0.9, Embedding: []float32{1}}
	searcher := &fakeSearcher{neighbors: []database.Neighbor{{SampleID: 7, EmployeeID: "205", Distance: 0.12}}}
	r := NewRecognizer(&fakeDetector{faces: []facematch.Face{face}}, searcher, testOptions())

	got, err := r.Guess(context.Background(), pngFrame(t, 200, 100))
	if err != nil {
		t.Fatalf("Guess() error = %v", err)
	}
	if got.Match.EmployeeID != "205" || got.Match.Votes != 1 || got.Match.Distance != 0.12 {
		t.Errorf("Match = %+v", got.Match)
	}
}

func TestRecognizer_GuessErrors(t *testing.T) {
	face := facematch.Face{BBox: []float64{0, 0, 50, 50}, DetScore: 0.9, Embedding: []float32{1}}
	detectorErr := errors.New("connection refused")

	tests := []struct {
		name     string
		frame    []byte
		detector *fakeDetector
		searcher *fakeSearcher
		wantIs   error
	}{
		{"undecodable frame", []byte("garbage"), &fakeDetector{}, &fakeSearcher{}, nil},
		{"detector down", nil, &fakeDetector{err: detectorErr}, &fakeSearcher{}, detectorErr},
		{"index not trained", nil, &fakeDetector{faces: []facematch.Face{face}},
			&fakeSearcher{err: database.ErrIndexNotTrained}, database.ErrIndexNotTrained},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.frame
			if frame == nil {
				frame = pngFrame(t, 200, 100)
			}
			_, err := NewRecognizer(tt.detector, tt.searcher, testOptions()).Guess(context.Background(), frame)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}
