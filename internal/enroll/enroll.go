// Package enroll registers employees with their face samples and removes them.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var (
	ErrInvalidEmployeeID   = errors.New("employee id must be a positive number")
	ErrEmptyName           = errors.New("employee name is empty")
	ErrTooFewSamples       = errors.New("not enough usable face samples")
	ErrFaceAlreadyEnrolled = errors.New("face already enrolled for another employee")
)

// AttendancePurger deletes ledger rows of a removed employee.
type AttendancePurger interface {
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
}

// Image is one enrollment photo.
type Image struct {
	Name string
	Data []byte
}

// Progress is called after each image is processed.
type Progress func(done, total int, image string)

// Options tune sample selection.
type Options struct {
	MinSamples        int
	DuplicateDistance float64 // zero disables the duplicate face check
	RepeatedPhotoBits int     // dHash distance under which photos count as repeats, zero disables
	MaxFrameSize      int
	MinFaceSize       float64
	MinDetScore       float64
}

// OptionsFromConfig builds enrollment options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinSamples:        cfg.Enroll.MinSamples,
		DuplicateDistance: cfg.Enroll.DuplicateDistance,
		RepeatedPhotoBits: constants.RepeatedPhotoBits,
		MaxFrameSize:      cfg.Recognition.MaxFrameSize,
		MinFaceSize:       constants.MinFaceSize,
		MinDetScore:       cfg.Recognition.MinDetScore,
	}
}

// Result describes a completed enrollment.
type Result struct {
	Employee database.Employee
	Samples  int
	Skipped  []string // images without a usable face
	Repeated []string // images repeating an earlier photo
}

// Service enrolls and removes employees.
type Service struct {
	store    database.EmployeeWriter
	ledger   AttendancePurger
	detector recognition.FaceDetector
	opts     Options
	logger   zerolog.Logger
}

// NewService creates an enrollment service.
func NewService(store database.EmployeeWriter, ledger AttendancePurger, detector recognition.FaceDetector, opts Options, logger zerolog.Logger) *Service {
	if opts.MinSamples < 1 {
		opts.MinSamples = 1
	}
	return &Service{store: store, ledger: ledger, detector: detector, opts: opts, logger: logger}
}

// ValidateID checks that id is a positive integer and returns it trimmed.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmployeeID, id)
	}
	return id, nil
}

// Enroll stores an employee with the best face of every image. Images without
// a usable face are skipped; fewer than MinSamples usable images fail the
// enrollment and store nothing.
func (s *Service) Enroll(ctx context.Context, id, name string, images []Image, progress Progress) (Result, error) {
	id, err := ValidateID(id)
	if err != nil {
		return Result{}, err
	}
	name = facematch.CleanDisplayName(name)
	if name == "" {
		return Result{}, ErrEmptyName
	}

	existing, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("checking employee %s: %w", id, err)
	}
	if existing != nil {
		return Result{}, fmt.Errorf("%w: %s (%s)", database.ErrDuplicateEmployee, id, existing.Name)
	}
	if len(images) < s.opts.MinSamples {
		return Result{}, fmt.Errorf("%w: got %d images, need %d", ErrTooFewSamples, len(images), s.opts.MinSamples)
	}

	var result Result
	var samples []database.FaceSample
	seen := fingerprint.NewSet(s.opts.RepeatedPhotoBits - 1)
	for i, img := range images {
		if s.opts.RepeatedPhotoBits > 0 && s.repeated(seen, img) {
			result.Repeated = append(result.Repeated, img.Name)
			s.logger.Debug().Str("image", img.Name).Msg("Repeated photo, skipping")
			if progress != nil {
				progress(i+1, len(images), img.Name)
			}
			continue
		}

		sample, ok, err := s.sample(ctx, img)
		if err != nil {
			return Result{}, fmt.Errorf("image %s: %w", img.Name, err)
		}
		if ok {
			if err := s.checkDuplicate(ctx, id, sample.Embedding); err != nil {
				return Result{}, fmt.Errorf("image %s: %w", img.Name, err)
			}
			samples = append(samples, sample)
		} else {
			result.Skipped = append(result.Skipped, img.Name)
			s.logger.Debug().Str("image", img.Name).Msg("No usable face, skipping")
		}
		if progress != nil {
			progress(i+1, len(images), img.Name)
		}
	}

	if len(samples) < s.opts.MinSamples {
		return Result{}, fmt.Errorf("%w: %d of %d images had a face, need %d",
			ErrTooFewSamples, len(samples), len(images), s.opts.MinSamples)
	}

	employee := database.Employee{
		ID:         id,
		Name:       name,
		Status:     database.EmployeeActive,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.store.CreateEmployee(ctx, employee, samples); err != nil {
		return Result{}, fmt.Errorf("saving employee %s: %w", id, err)
	}

	s.logger.Info().
		Str("employee_id", id).
		Str("name", name).
		Int("samples", len(samples)).
		Int("skipped", len(result.Skipped)).
		Int("repeated", len(result.Repeated)).
		Msg("Employee enrolled")

	employee.SampleCount = len(samples)
	result.Employee = employee
	result.Samples = len(samples)
	return result, nil
}

// repeated reports whether img is a near copy of an earlier photo. Undecodable
// images are left to the face detection step to reject.
func (s *Service) repeated(seen *fingerprint.Set, img Image) bool {
	hash, err := fingerprint.DHash(img.Data)
	if err != nil {
		return false
	}
	return !seen.Add(hash)
}

func (s *Service) sample(ctx context.Context, img Image) (database.FaceSample, bool, error) {
	frame, err := recognition.PrepareFrame(img.Data, s.opts.MaxFrameSize)
	if err != nil {
		return database.FaceSample{}, false, err
	}
	faces, err := s.detector.DetectFaces(ctx, frame.Data)
	if err != nil {
		return database.FaceSample{}, false, fmt.Errorf("detecting faces: %w", err)
	}
	for i := range faces {
		faces[i].BBox = facematch.ScaleBBox(faces[i].BBox, frame.Width, frame.Height, frame.SrcW, frame.SrcH)
	}
	face, ok := facematch.BestFace(faces, s.opts.MinFaceSize, s.opts.MinDetScore)
	if !ok {
		return database.FaceSample{}, false, nil
	}
	return database.FaceSample{
		Embedding: face.Embedding,
		DetScore:  face.DetScore,
		Source:    img.Name,
	}, true, nil
}

func (s *Service) checkDuplicate(ctx context.Context, id string, embedding []float32) error {
	if s.opts.DuplicateDistance <= 0 {
		return nil
	}
	nearest, distance, err := s.store.NearestSample(ctx, embedding)
	if err != nil {
		return fmt.Errorf("searching enrolled faces: %w", err)
	}
	if nearest != nil && nearest.EmployeeID != id && distance < s.opts.DuplicateDistance {
		return fmt.Errorf("%w: matches employee %s (distance %.3f)", ErrFaceAlreadyEnrolled, nearest.EmployeeID, distance)
	}
	return nil
}

// Remove deletes an employee and its samples, and with purgeAttendance also
// its ledger rows. It returns the number of ledger rows deleted. The sample
// index must be retrained afterwards.
func (s *Service) Remove(ctx context.Context, id string, purgeAttendance bool) (int64, error) {
	id = strings.TrimSpace(id)
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return 0, fmt.Errorf("deleting employee %s: %w", id, err)
	}

	var purged int64
	if purgeAttendance && s.ledger != nil {
		n, err := s.ledger.DeleteByEmployee(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("purging attendance of %s: %w", id, err)
		}
		purged = n
	}

	s.logger.Info().Str("employee_id", id).Int64("attendance_purged", purged).Msg("Employee removed")
	return purged, nil
}
