package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// FaceDetector returns the faces found in an encoded image.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Face, error)
}

// SampleSearcher finds the enrolled samples nearest to an embedding.
type SampleSearcher interface {
	Search(query []float32, k int, maxDistance float64) ([]database.Neighbor, error)
}

// Options tune face selection and matching.
type Options struct {
	MaxFrameSize int
	MinFaceSize  float64 // pixels on the captured frame
	MinDetScore  float64
	Neighbors    int
	MaxDistance  float64
}

// OptionsFromConfig builds recognizer options from the recognition config.
func OptionsFromConfig(cfg config.RecognitionConfig) Options {
	return Options{
		MaxFrameSize: cfg.MaxFrameSize,
		MinFaceSize:  constants.MinFaceSize,
		MinDetScore:  cfg.MinDetScore,
		Neighbors:    cfg.Neighbors,
		MaxDistance:  cfg.MaxDistance,
	}
}

// Guess is the identity guess for one frame. Label is an employee ID,
// constants.UnknownLabel or attendance.NoFace.
type Guess struct {
	Label string
	Match facematch.Match
	Faces int
}

// Recognizer turns frames into guesses.
type Recognizer struct {
	detector FaceDetector
	samples  SampleSearcher
	opts     Options
}

// NewRecognizer creates a recognizer over a trained sample index.
func NewRecognizer(detector FaceDetector, samples SampleSearcher, opts Options) *Recognizer {
	if opts.Neighbors <= 0 {
		opts.Neighbors = 1
	}
	return &Recognizer{detector: detector, samples: samples, opts: opts}
}

// Guess recognizes the most confidently detected face of a frame.
func (r *Recognizer) Guess(ctx context.Context, data []byte) (Guess, error) {
	start := time.Now()
	defer func() { metrics.RecognitionDuration.Observe(time.Since(start).Seconds()) }()

	frame, err := PrepareFrame(data, r.opts.MaxFrameSize)
	if err != nil {
		return Guess{}, err
	}

	faces, err := r.detector.DetectFaces(ctx, frame.Data)
	if err != nil {
		return Guess{}, fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		return Guess{Label: attendance.NoFace}, nil
	}

	// Size limits apply to the captured frame, not the downscaled upload.
	scaled := make([]facematch.Face, len(faces))
	for i, f := range faces {
		f.BBox = facematch.ScaleBBox(f.BBox, frame.Width, frame.Height, frame.SrcW, frame.SrcH)
		scaled[i] = f
	}
	face, ok := facematch.BestFace(scaled, r.opts.MinFaceSize, r.opts.MinDetScore)
	if !ok {
		return Guess{Label: attendance.NoFace, Faces: len(faces)}, nil
	}

	neighbors, err := r.samples.Search(face.Embedding, r.opts.Neighbors, r.opts.MaxDistance)
	if err != nil {
		if errors.Is(err, database.ErrIndexNotTrained) {
			return Guess{}, err
		}
		return Guess{}, fmt.Errorf("searching samples: %w", err)
	}

	match, ok := facematch.Vote(neighbors)
	if !ok {
		return Guess{Label: constants.UnknownLabel, Faces: len(faces)}, nil
	}
	return Guess{Label: match.EmployeeID, Match: match, Faces: len(faces)}, nil
}
