package recognition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// ErrTooFewEmployees is returned when training with fewer than
// constants.MinTrainEmployees enrolled employees.
var ErrTooFewEmployees = errors.New("not enough enrolled employees to train")

// SampleSource is the read side of the employee store used for training.
type SampleSource interface {
	GetFaceSamples(ctx context.Context) ([]database.FaceSample, error)
	SampleStats(ctx context.Context) (count int64, maxID int64, err error)
}

// Train builds the sample index from every stored face sample and saves it
// to path.
func Train(ctx context.Context, samples SampleSource, path string) (*database.SampleIndex, error) {
	all, err := samples.GetFaceSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading face samples: %w", err)
	}

	employees := make(map[string]struct{})
	for _, s := range all {
		employees[s.EmployeeID] = struct{}{}
	}
	if len(employees) < constants.MinTrainEmployees {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewEmployees, len(employees), constants.MinTrainEmployees)
	}

	index := database.NewSampleIndex()
	index.Build(all)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}
	metadata := index.Metadata()
	metadata.BuildTime = time.Now().UTC()
	if err := index.Save(path, metadata); err != nil {
		return nil, fmt.Errorf("saving sample index: %w", err)
	}
	return index, nil
}

// LoadOrTrain loads the index saved at path, retraining when it is missing,
// unreadable or no longer matches the stored samples. The second return
// value reports whether the index was rebuilt.
func LoadOrTrain(ctx context.Context, samples SampleSource, path string, logger zerolog.Logger) (*database.SampleIndex, bool, error) {
	count, maxID, err := samples.SampleStats(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reading sample stats: %w", err)
	}

	index, err := database.LoadSampleIndex(path)
	switch {
	case err != nil:
		logger.Info().Err(err).Str("path", path).Msg("Sample index unavailable, training")
	case index.Stale(count, maxID):
		meta := index.Metadata()
		logger.Info().
			Int64("indexed", meta.SampleCount).
			Int64("stored", count).
			Msg("Sample index is stale, retraining")
	default:
		return index, false, nil
	}

	index, err = Train(ctx, samples, path)
	if err != nil {
		return nil, false, err
	}
	return index, true, nil
}
