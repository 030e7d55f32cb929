package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// Ledger is the part of the attendance store the state machine needs.
type Ledger interface {
	ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error)
	Upsert(ctx context.Context, record database.AttendanceRecord) error
}

// Machine decides between check-in and check-out and writes the ledger.
// It keeps the records of the current day in memory; the cache is owned by
// the recognition loop and is reloaded from the ledger whenever the day changes.
type Machine struct {
	ledger   Ledger
	location *time.Location
	logger   zerolog.Logger

	day   string
	cache map[string]database.AttendanceRecord
}

// NewMachine creates a state machine over ledger. Days are computed in loc.
func NewMachine(ledger Ledger, loc *time.Location, logger zerolog.Logger) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{
		ledger:   ledger,
		location: loc,
		logger:   logger,
		cache:    make(map[string]database.AttendanceRecord),
	}
}

func dayOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Load replaces the day cache with the ledger's records for the day of now.
func (m *Machine) Load(ctx context.Context, now time.Time) error {
	day := dayOf(now.In(m.location))
	records, err := m.ledger.ListByDate(ctx, day)
	if err != nil {
		return fmt.Errorf("loading attendance for %s: %w", day, err)
	}

	cache := make(map[string]database.AttendanceRecord, len(records))
	for _, r := range records {
		cache[r.EmployeeID] = r
	}
	m.day = day
	m.cache = cache
	m.logger.Debug().Str("date", day).Int("records", len(records)).Msg("Loaded day cache")
	return nil
}

// Day returns the day the cache currently holds.
func (m *Machine) Day() string {
	return m.day
}

// Records returns a copy of the cached records of the current day.
func (m *Machine) Records() []database.AttendanceRecord {
	out := make([]database.AttendanceRecord, 0, len(m.cache))
	for _, r := range m.cache {
		out = append(out, r)
	}
	return out
}

// Process applies one stabilized, cooldown-cleared detection.
func (m *Machine) Process(ctx context.Context, employeeID, employeeName string, now time.Time) Transition {
	if !Identifiable(employeeID) {
		return Rejected(employeeID, ReasonUnrecognized, nil)
	}

	now = now.In(m.location)
	today := dayOf(now)
	if m.day != today {
		if err := m.Load(ctx, now); err != nil {
			return Rejected(employeeID, ReasonPersistenceError, err)
		}
	}

	prev, exists := m.cache[employeeID]
	if !exists {
		record := database.AttendanceRecord{
			EmployeeID:   employeeID,
			EmployeeName: employeeName,
			Date:         today,
			CheckIn:      now,
		}
		m.cache[employeeID] = record
		if err := m.write(ctx, record); err != nil {
			delete(m.cache, employeeID)
			return Rejected(employeeID, ReasonPersistenceError, err)
		}
		return CheckIn(employeeID, employeeName, now)
	}

	record := prev
	checkOut := now
	record.CheckOut = &checkOut
	record.WorkingHours = database.WorkingHours(record.CheckIn, now)
	if employeeName != "" {
		record.EmployeeName = employeeName
	}
	if err := record.Validate(); err != nil {
		return Rejected(employeeID, ReasonPersistenceError, err)
	}

	m.cache[employeeID] = record
	if err := m.write(ctx, record); err != nil {
		m.cache[employeeID] = prev
		return Rejected(employeeID, ReasonPersistenceError, err)
	}
	return CheckOut(employeeID, record.EmployeeName, now, record.WorkingHours)
}

func (m *Machine) write(ctx context.Context, record database.AttendanceRecord) error {
	start := time.Now()
	err := m.ledger.Upsert(ctx, record)
	metrics.LedgerWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("saving attendance of %s on %s: %w", record.EmployeeID, record.Date, err)
	}
	return nil
}
