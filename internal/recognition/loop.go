package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// ErrTooManyFailures ends a loop whose frame source or embedding server kept
// failing.
var ErrTooManyFailures = errors.New("too many consecutive frame failures")

// Guesser produces the identity guess of one frame.
type Guesser interface {
	Guess(ctx context.Context, data []byte) (Guess, error)
}

// Handler consumes per-frame guesses.
type Handler interface {
	Handle(ctx context.Context, guess string) (attendance.Transition, bool)
}

// Event is reported to the observer for every frame.
// Err is set for skipped frames. Transition is meaningful when Stabilized.
type Event struct {
	Frame      int
	Guess      Guess
	Stabilized bool
	Transition attendance.Transition
	Err        error
}

// Observer receives loop events. It runs on the loop goroutine.
type Observer func(Event)

// Loop reads frames, recognizes them and feeds the guesses to a session,
// one frame at a time.
type Loop struct {
	source      FrameSource
	guesser     Guesser
	handler     Handler
	maxFailures int
	observer    Observer
	logger      zerolog.Logger
}

// NewLoop creates a loop. maxFailures <= 0 never gives up on failures.
func NewLoop(source FrameSource, guesser Guesser, handler Handler, maxFailures int, logger zerolog.Logger) *Loop {
	return &Loop{
		source:      source,
		guesser:     guesser,
		handler:     handler,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// SetObserver registers the event observer.
func (l *Loop) SetObserver(o Observer) {
	l.observer = o
}

// Run processes frames until ctx is cancelled, the source is exhausted or a
// fatal error occurs. The source is closed on return. Cancellation and
// exhaustion return nil.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.source.Close(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to close frame source")
		}
	}()

	// An attendance event in flight is finished even after cancellation.
	sessionCtx := context.WithoutCancel(ctx)

	failures := 0
	for frame := 1; ; frame++ {
		if ctx.Err() != nil {
			return nil
		}

		data, err := l.source.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceExhausted) {
				l.logger.Info().Int("frames", frame-1).Msg("Frame source exhausted")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			metrics.CameraReadFailures.Inc()
			failures++
			l.emit(Event{
				Frame:      frame,
				Transition: attendance.Rejected("", attendance.ReasonCameraReadFailure, err),
				Err:        err,
			})
			l.logger.Warn().Err(err).Int("consecutive", failures).Msg("Camera read failed, skipping frame")
			if l.maxFailures > 0 && failures >= l.maxFailures {
				return fmt.Errorf("%w: %d camera read failures", ErrTooManyFailures, failures)
			}
			continue
		}
		metrics.FramesTotal.Inc()

		guess, err := l.guesser.Guess(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, database.ErrIndexNotTrained) {
				return fmt.Errorf("recognizing frame: %w", err)
			}
			failures++
			l.emit(Event{Frame: frame, Err: err})
			l.logger.Warn().Err(err).Int("consecutive", failures).Msg("Recognition failed, skipping frame")
			if l.maxFailures > 0 && failures >= l.maxFailures {
				return fmt.Errorf("%w: %d recognition failures", ErrTooManyFailures, failures)
			}
			continue
		}
		failures = 0

		t, stabilized := l.handler.Handle(sessionCtx, guess.Label)
		l.emit(Event{Frame: frame, Guess: guess, Stabilized: stabilized, Transition: t})
	}
}

func (l *Loop) emit(ev Event) {
	if l.observer != nil {
		l.observer(ev)
	}
}
