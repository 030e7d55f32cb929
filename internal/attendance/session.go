package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// Directory resolves employee IDs to enrolled employees.
type Directory interface {
	Lookup(ctx context.Context, id string) (database.Employee, bool, error)
}

// Options configure a Session.
type Options struct {
	DebounceFrames int
	Cooldown       time.Duration
	SeedCooldown   bool // arm the cooldown from today's check-outs on Start
	NameFallback   bool // accept IDs missing from the directory, using the ID as name
	Location       *time.Location
}

// OptionsFromConfig builds session options from the attendance config.
func OptionsFromConfig(cfg config.AttendanceConfig) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	return Options{
		DebounceFrames: cfg.DebounceFrames,
		Cooldown:       cfg.Cooldown,
		SeedCooldown:   cfg.CooldownSeed,
		NameFallback:   cfg.NameFallback,
		Location:       loc,
	}, nil
}

// Stats counts what a session did.
type Stats struct {
	Guesses    int
	Stabilized int
	CheckIns   int
	CheckOuts  int
	Rejected   map[Reason]int
}

// Session owns the per-run state of one recognition loop: the debouncer,
// the cooldown gate and the state machine with its day cache.
type Session struct {
	ID uuid.UUID

	debouncer *Debouncer
	gate      *CooldownGate
	machine   *Machine
	directory Directory
	clock     Clock
	opts      Options
	logger    zerolog.Logger

	startedAt time.Time
	stats     Stats
}

// NewSession wires a session. A nil store keeps the cooldown in memory.
func NewSession(ledger Ledger, dir Directory, store CooldownStore, clock Clock, opts Options, logger zerolog.Logger) *Session {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if clock == nil {
		clock = RealClock{Location: opts.Location}
	}
	id := uuid.New()
	logger = logger.With().Str("session", id.String()).Logger()
	return &Session{
		ID:        id,
		debouncer: NewDebouncer(opts.DebounceFrames),
		gate:      NewCooldownGate(store, opts.Cooldown),
		machine:   NewMachine(ledger, opts.Location, logger),
		directory: dir,
		clock:     clock,
		opts:      opts,
		logger:    logger,
		stats:     Stats{Rejected: make(map[Reason]int)},
	}
}

// Start resets the debouncer, loads today's records and seeds the cooldown.
func (s *Session) Start(ctx context.Context) error {
	s.debouncer.Reset()
	s.startedAt = s.clock.Now()

	if err := s.machine.Load(ctx, s.startedAt); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	if s.opts.SeedCooldown {
		n, err := s.gate.Seed(ctx, s.machine.Records())
		if err != nil {
			return fmt.Errorf("seeding cooldown: %w", err)
		}
		s.logger.Debug().Int("employees", n).Msg("Seeded cooldown from today's check-outs")
	}

	s.logger.Info().
		Str("date", s.machine.Day()).
		Int("debounce_frames", s.debouncer.threshold).
		Dur("cooldown", s.gate.Window()).
		Msg("Attendance session started")
	return nil
}

// Handle feeds one per-frame guess. It returns the transition and true when
// the guess stabilized; unstabilized guesses return false.
func (s *Session) Handle(ctx context.Context, guess string) (Transition, bool) {
	s.stats.Guesses++
	metrics.GuessesTotal.WithLabelValues(guessKind(guess)).Inc()

	id, ok := s.debouncer.Observe(guess)
	if !ok {
		return Transition{}, false
	}
	s.stats.Stabilized++
	metrics.StabilizationsTotal.Inc()

	t := s.evaluate(ctx, id, s.clock.Now().In(s.opts.Location))
	s.record(t)
	return t, true
}

func (s *Session) evaluate(ctx context.Context, id string, now time.Time) Transition {
	name, ok := s.resolve(ctx, id)
	if !ok {
		return Rejected(id, ReasonUnrecognized, nil)
	}

	remaining, blocked, err := s.gate.Check(ctx, id, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("employee_id", id).Msg("Cooldown store unavailable, letting event through")
	}
	if blocked {
		t := Rejected(id, ReasonCooldownActive, nil)
		t.EmployeeName = name
		t.Remaining = remaining
		return t
	}

	t := s.machine.Process(ctx, id, name, now)
	if t.Kind == KindCheckOut {
		if err := s.gate.Record(ctx, id, t.At); err != nil {
			s.logger.Warn().Err(err).Str("employee_id", id).Msg("Failed to arm cooldown")
		}
	}
	return t
}

// resolve returns the display name of id, or false when it is not an employee.
func (s *Session) resolve(ctx context.Context, id string) (string, bool) {
	employee, found, err := s.directory.Lookup(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("employee_id", id).Msg("Employee directory lookup failed")
		return "", false
	}
	if found {
		return employee.Name, true
	}
	if s.opts.NameFallback {
		return id, true
	}
	return "", false
}

func (s *Session) record(t Transition) {
	metrics.TransitionsTotal.WithLabelValues(t.Kind.String()).Inc()

	switch t.Kind {
	case KindCheckIn:
		s.stats.CheckIns++
		s.logger.Info().
			Str("employee_id", t.EmployeeID).
			Str("name", t.EmployeeName).
			Time("at", t.At).
			Msg("Checked in")
	case KindCheckOut:
		s.stats.CheckOuts++
		s.logger.Info().
			Str("employee_id", t.EmployeeID).
			Str("name", t.EmployeeName).
			Time("at", t.At).
			Float64("hours", t.WorkingHours).
			Msg("Checked out")
	default:
		s.stats.Rejected[t.Reason]++
		metrics.RejectionsTotal.WithLabelValues(string(t.Reason)).Inc()
		ev := s.logger.Info()
		if t.Reason == ReasonPersistenceError {
			ev = s.logger.Error().Err(t.Err)
		}
		if t.Reason == ReasonCooldownActive {
			ev = ev.Int("remaining_minutes", t.RemainingMinutes())
		}
		ev.Str("employee_id", t.EmployeeID).Str("reason", string(t.Reason)).Msg("Attendance event rejected")
	}
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() Stats {
	out := s.stats
	out.Rejected = make(map[Reason]int, len(s.stats.Rejected))
	for k, v := range s.stats.Rejected {
		out.Rejected[k] = v
	}
	return out
}

// Close ends the session and returns its counters.
func (s *Session) Close() Stats {
	s.debouncer.Reset()
	stats := s.Stats()
	s.logger.Info().
		Dur("duration", s.clock.Now().Sub(s.startedAt)).
		Int("check_ins", stats.CheckIns).
		Int("check_outs", stats.CheckOuts).
		Int("stabilized", stats.Stabilized).
		Msg("Attendance session closed")
	return stats
}

func guessKind(guess string) string {
	switch guess {
	case "", NoFace:
		return "no_face"
	case constants.UnknownLabel:
		return "unknown"
	default:
		return "known"
	}
}
