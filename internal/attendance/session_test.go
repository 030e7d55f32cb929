package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

type mapDirectory struct {
	employees map[string]string
	err       error
}

func (d mapDirectory) Lookup(_ context.Context, id string) (database.Employee, bool, error) {
	if d.err != nil {
		return database.Employee{}, false, d.err
	}
	name, ok := d.employees[id]
	if !ok {
		return database.Employee{}, false, nil
	}
	return database.Employee{ID: id, Name: name}, true, nil
}

type sessionFixture struct {
	session *Session
	ledger  *mock.MockLedger
	clock   *TestClock
}

func newFixture(t *testing.T, opts Options) *sessionFixture {
	t.Helper()
	if opts.DebounceFrames == 0 {
		opts.DebounceFrames = 2
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 10 * time.Minute
	}
	opts.Location = time.UTC
	ledger := mock.NewMockLedger()
	clock := &TestClock{CurrentTime: at(8, 0)}
	dir := mapDirectory{employees: map[string]string{"101": "Asha", "102": "Ben"}}
	s := NewSession(ledger, dir, nil, clock, opts, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return &sessionFixture{session: s, ledger: ledger, clock: clock}
}

// detect feeds frames until the identity stabilizes once.
func (f *sessionFixture) detect(t *testing.T, guess string) Transition {
	t.Helper()
	for i := 0; i < 100; i++ {
		if tr, ok := f.session.Handle(context.Background(), guess); ok {
			return tr
		}
	}
	t.Fatalf("%q never stabilized", guess)
	return Transition{}
}

func TestSession_CheckInCheckOutScenario(t *testing.T) {
	f := newFixture(t, Options{})

	f.clock.Set(9, 0, 0)
	if tr := f.detect(t, "101"); tr.Kind != KindCheckIn || tr.EmployeeName != "Asha" {
		t.Fatalf("expected Asha to check in, got %+v", tr)
	}

	f.clock.Set(17, 30, 0)
	tr := f.detect(t, "101")
	if tr.Kind != KindCheckOut || tr.WorkingHours != 8.5 {
		t.Fatalf("expected check-out with 8.5 h, got %+v", tr)
	}

	rec, _ := f.ledger.Get(context.Background(), "101", "2025-03-10")
	if rec.EmployeeName != "Asha" || !rec.CheckOut.Equal(at(17, 30)) {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestSession_CheckInDoesNotArmCooldown(t *testing.T) {
	f := newFixture(t, Options{})

	f.clock.Set(9, 0, 0)
	f.detect(t, "101")
	f.clock.Set(9, 0, 30)
	if tr := f.detect(t, "101"); tr.Kind != KindCheckOut {
		t.Fatalf("a re-detection right after check-in should check out, got %+v", tr)
	}
}

func TestSession_CooldownAfterCheckOut(t *testing.T) {
	f := newFixture(t, Options{})

	f.clock.Set(9, 0, 0)
	f.detect(t, "101")
	f.clock.Set(17, 30, 0)
	f.detect(t, "101")
	upserts := len(f.ledger.UpsertCalls)

	f.clock.Set(17, 35, 0)
	tr := f.detect(t, "101")
	if tr.Reason != ReasonCooldownActive || tr.RemainingMinutes() != 5 {
		t.Fatalf("expected COOLDOWN_ACTIVE with 5 min remaining, got %+v", tr)
	}
	if len(f.ledger.UpsertCalls) != upserts {
		t.Error("cooldown must not write the ledger")
	}
	rec, _ := f.ledger.Get(context.Background(), "101", "2025-03-10")
	if !rec.CheckOut.Equal(at(17, 30)) {
		t.Errorf("record changed during cooldown: %+v", rec)
	}

	f.clock.Set(17, 45, 0)
	if tr := f.detect(t, "101"); tr.Kind != KindCheckOut || tr.WorkingHours != 8.75 {
		t.Errorf("expected check-out after cooldown, got %+v", tr)
	}
}

func TestSession_UnknownEmployee(t *testing.T) {
	f := newFixture(t, Options{})

	tr := f.detect(t, "999")
	if tr.Reason != ReasonUnrecognized {
		t.Fatalf("expected UNRECOGNIZED, got %+v", tr)
	}
	if f.ledger.Len() != 0 {
		t.Error("no record expected for an unknown employee")
	}
	if f.session.Stats().Rejected[ReasonUnrecognized] != 1 {
		t.Errorf("unexpected stats %+v", f.session.Stats())
	}
}

func TestSession_NameFallback(t *testing.T) {
	f := newFixture(t, Options{NameFallback: true})

	tr := f.detect(t, "999")
	if tr.Kind != KindCheckIn || tr.EmployeeName != "999" {
		t.Fatalf("expected check-in with raw label as name, got %+v", tr)
	}
}

func TestSession_DirectoryError(t *testing.T) {
	ledger := mock.NewMockLedger()
	s := NewSession(ledger, mapDirectory{err: errors.New("hr db down")}, nil,
		&TestClock{CurrentTime: at(9, 0)}, Options{DebounceFrames: 1, Location: time.UTC}, zerolog.Nop())

	s.Handle(context.Background(), "101")
	tr, ok := s.Handle(context.Background(), "101")
	if !ok || tr.Reason != ReasonUnrecognized {
		t.Fatalf("expected UNRECOGNIZED on directory failure, got %+v", tr)
	}
}

func TestSession_UnknownFramesNeverTransition(t *testing.T) {
	f := newFixture(t, Options{})
	for i := 0; i < 50; i++ {
		if _, ok := f.session.Handle(context.Background(), "unknown"); ok {
			t.Fatal("unknown must never stabilize")
		}
		if _, ok := f.session.Handle(context.Background(), NoFace); ok {
			t.Fatal("no-face must never stabilize")
		}
	}
	if len(f.ledger.UpsertCalls) != 0 {
		t.Error("no writes expected")
	}
}

func TestSession_SeedCooldownOnStart(t *testing.T) {
	ledger := mock.NewMockLedger()
	out := at(17, 30)
	ledger.AddRecord(database.AttendanceRecord{
		EmployeeID: "101", EmployeeName: "Asha", Date: "2025-03-10",
		CheckIn: at(9, 0), CheckOut: &out, WorkingHours: 8.5,
	})
	dir := mapDirectory{employees: map[string]string{"101": "Asha"}}

	tests := []struct {
		name     string
		seed     bool
		wantKind Kind
	}{
		{"seeded", true, KindRejected},
		{"session only", false, KindCheckOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &TestClock{CurrentTime: at(17, 35)}
			s := NewSession(ledger, dir, NewMemoryCooldownStore(), clock,
				Options{DebounceFrames: 1, Cooldown: 10 * time.Minute, SeedCooldown: tt.seed, Location: time.UTC},
				zerolog.Nop())
			if err := s.Start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			s.Handle(context.Background(), "101")
			tr, _ := s.Handle(context.Background(), "101")
			if tr.Kind != tt.wantKind {
				t.Errorf("got %+v, want kind %s", tr, tt.wantKind)
			}
		})
	}
}

func TestSession_StartFailsWhenLedgerUnavailable(t *testing.T) {
	ledger := mock.NewMockLedger()
	ledger.ListByDateError = errors.New("connection refused")
	s := NewSession(ledger, mapDirectory{}, nil, &TestClock{CurrentTime: at(9, 0)},
		Options{Location: time.UTC}, zerolog.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
}

func TestSession_Close(t *testing.T) {
	f := newFixture(t, Options{})
	f.clock.Set(9, 0, 0)
	f.detect(t, "101")
	f.detect(t, "102")

	stats := f.session.Close()
	if stats.CheckIns != 2 || stats.Stabilized != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if prev, count := f.session.debouncer.State(); prev != "" || count != 0 {
		t.Error("debouncer should be reset on close")
	}
}

func TestTransition_String(t *testing.T) {
	tests := []struct {
		tr   Transition
		want string
	}{
		{CheckIn("101", "Asha", at(9, 0)), "Asha (101) checked in at 09:00:00"},
		{CheckOut("101", "Asha", at(17, 30), 8.5), "Asha (101) checked out at 17:30:00, 8.50 h"},
		{Transition{Kind: KindRejected, EmployeeID: "101", Reason: ReasonCooldownActive, Remaining: 4*time.Minute + time.Second}, "101: cooldown active, 5 min remaining"},
		{Rejected("999", ReasonUnrecognized, nil), "999: not an enrolled employee"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
