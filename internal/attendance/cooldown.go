package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// DefaultCooldown is the minimum time between a check-out and the next
// accepted event of the same employee.
const DefaultCooldown = 10 * time.Minute

// CooldownStore keeps the last check-out time per employee.
type CooldownStore interface {
	LastCheckOut(ctx context.Context, employeeID string) (time.Time, bool, error)
	SetLastCheckOut(ctx context.Context, employeeID string, at time.Time) error
	Clear(ctx context.Context, employeeID string) error
}

// MemoryCooldownStore is a process-local CooldownStore.
type MemoryCooldownStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryCooldownStore creates an empty in-memory store.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{last: make(map[string]time.Time)}
}

func (m *MemoryCooldownStore) LastCheckOut(_ context.Context, employeeID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.last[employeeID]
	return at, ok, nil
}

func (m *MemoryCooldownStore) SetLastCheckOut(_ context.Context, employeeID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[employeeID] = at
	return nil
}

func (m *MemoryCooldownStore) Clear(_ context.Context, employeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.last, employeeID)
	return nil
}

// CooldownGate drops events that arrive too soon after an employee's check-out.
type CooldownGate struct {
	store  CooldownStore
	window time.Duration
}

// NewCooldownGate creates a gate over store.
func NewCooldownGate(store CooldownStore, window time.Duration) *CooldownGate {
	if store == nil {
		store = NewMemoryCooldownStore()
	}
	return &CooldownGate{store: store, window: window}
}

// Check returns the remaining cooldown and true when the event must be dropped.
// A check-out from an earlier calendar day never blocks and is forgotten.
func (g *CooldownGate) Check(ctx context.Context, employeeID string, now time.Time) (time.Duration, bool, error) {
	last, ok, err := g.store.LastCheckOut(ctx, employeeID)
	if err != nil || !ok {
		return 0, false, err
	}

	if dayOf(last.In(now.Location())) != dayOf(now) {
		return 0, false, g.store.Clear(ctx, employeeID)
	}

	elapsed := max(now.Sub(last), 0)
	if elapsed < g.window {
		return g.window - elapsed, true, nil
	}
	return 0, false, nil
}

// Record arms the cooldown after a check-out.
func (g *CooldownGate) Record(ctx context.Context, employeeID string, at time.Time) error {
	return g.store.SetLastCheckOut(ctx, employeeID, at)
}

// Seed arms the cooldown from existing check-outs, keeping the latest per employee.
func (g *CooldownGate) Seed(ctx context.Context, records []database.AttendanceRecord) (int, error) {
	seeded := 0
	for _, r := range records {
		if r.CheckOut == nil {
			continue
		}
		last, ok, err := g.store.LastCheckOut(ctx, r.EmployeeID)
		if err != nil {
			return seeded, err
		}
		if ok && !last.Before(*r.CheckOut) {
			continue
		}
		if err := g.store.SetLastCheckOut(ctx, r.EmployeeID, *r.CheckOut); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// Window returns the configured cooldown duration.
func (g *CooldownGate) Window() time.Duration {
	return g.window
}
