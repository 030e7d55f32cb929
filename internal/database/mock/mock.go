// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
)

type ledgerKey struct {
	employeeID string
	date       string
}

// MockLedger is an in-memory implementation of database.AttendanceWriter
type MockLedger struct {
	mu      sync.RWMutex
	records map[ledgerKey]database.AttendanceRecord

	// Error injection
	GetError              error
	ListByDateError       error
	ListByEmployeeError   error
	ListRangeError        error
	UpsertError           error
	DeleteByEmployeeError error

	// Call tracking
	UpsertCalls     []database.AttendanceRecord
	ListByDateCalls []string
}

// NewMockLedger creates a new empty mock ledger
func NewMockLedger() *MockLedger {
	return &MockLedger{records: make(map[ledgerKey]database.AttendanceRecord)}
}

// AddRecord stores a record without recording an Upsert call
func (m *MockLedger) AddRecord(r database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[ledgerKey{r.EmployeeID, r.Date}] = r
}

// Len returns the number of stored records
func (m *MockLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Get returns the record for an employee and day, nil if absent
func (m *MockLedger) Get(ctx context.Context, employeeID, date string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[ledgerKey{employeeID, date}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListByDate returns the records of a day ordered by check-in
func (m *MockLedger) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	m.mu.Lock()
	m.ListByDateCalls = append(m.ListByDateCalls, date)
	m.mu.Unlock()
	if m.ListByDateError != nil {
		return nil, m.ListByDateError
	}
	return m.filter(func(r database.AttendanceRecord) bool { return r.Date == date }), nil
}

// ListByEmployee returns the newest records of an employee
func (m *MockLedger) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]database.AttendanceRecord, error) {
	if m.ListByEmployeeError != nil {
		return nil, m.ListByEmployeeError
	}
	out := m.filter(func(r database.AttendanceRecord) bool { return r.EmployeeID == employeeID })
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListRange returns records with from <= date <= to
func (m *MockLedger) ListRange(ctx context.Context, from, to string) ([]database.AttendanceRecord, error) {
	if m.ListRangeError != nil {
		return nil, m.ListRangeError
	}
	return m.filter(func(r database.AttendanceRecord) bool { return r.Date >= from && r.Date <= to }), nil
}

// ListIncomplete returns records without check-out, of one day or of all days when date is empty
func (m *MockLedger) ListIncomplete(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.ListByDateError != nil {
		return nil, m.ListByDateError
	}
	out := m.filter(func(r database.AttendanceRecord) bool {
		return (date == "" || r.Date == date) && r.CheckOut == nil
	})
	if date == "" {
		slices.SortStableFunc(out, func(a, b database.AttendanceRecord) int { return cmp.Compare(b.Date, a.Date) })
	}
	return out, nil
}

// Summarize aggregates per employee over a range
func (m *MockLedger) Summarize(ctx context.Context, from, to string) ([]database.AttendanceSummary, error) {
	records, err := m.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byEmployee := make(map[string]*database.AttendanceSummary)
	for _, r := range records {
		s, ok := byEmployee[r.EmployeeID]
		if !ok {
			s = &database.AttendanceSummary{EmployeeID: r.EmployeeID}
			byEmployee[r.EmployeeID] = s
		}
		s.EmployeeName = r.EmployeeName
		s.DaysPresent++
		s.TotalHours += r.WorkingHours
	}
	out := make([]database.AttendanceSummary, 0, len(byEmployee))
	for _, s := range byEmployee {
		s.TotalHours = math.Round(s.TotalHours*100) / 100
		s.AverageHours = math.Round(s.TotalHours/float64(s.DaysPresent)*100) / 100
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b database.AttendanceSummary) int {
		return cmp.Compare(a.EmployeeName, b.EmployeeName)
	})
	return out, nil
}

// Upsert stores the record keyed by (employee ID, date)
func (m *MockLedger) Upsert(ctx context.Context, record database.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, record)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.records[ledgerKey{record.EmployeeID, record.Date}] = record
	return nil
}

// DeleteByEmployee removes all records of an employee
func (m *MockLedger) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	if m.DeleteByEmployeeError != nil {
		return 0, m.DeleteByEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.records {
		if k.employeeID == employeeID {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *MockLedger) filter(keep func(database.AttendanceRecord) bool) []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b database.AttendanceRecord) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := a.CheckIn.Compare(b.CheckIn); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})
	return out
}

// MockEmployeeStore is an in-memory implementation of database.EmployeeWriter
type MockEmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]database.Employee
	samples   []database.FaceSample
	nextID    int64

	// Error injection
	GetEmployeeError    error
	ListEmployeesError  error
	GetFaceSamplesError error
	CreateEmployeeError error
	DeleteEmployeeError error
}

// NewMockEmployeeStore creates a new empty employee store
func NewMockEmployeeStore() *MockEmployeeStore {
	return &MockEmployeeStore{employees: make(map[string]database.Employee)}
}

// AddEmployee stores an employee with samples, bypassing duplicate checks
func (m *MockEmployeeStore) AddEmployee(e database.Employee, samples ...database.FaceSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(e, samples)
}

func (m *MockEmployeeStore) addLocked(e database.Employee, samples []database.FaceSample) {
	for _, s := range samples {
		m.nextID++
		s.ID = m.nextID
		s.EmployeeID = e.ID
		m.samples = append(m.samples, s)
	}
	e.SampleCount = m.employees[e.ID].SampleCount + len(samples)
	if e.Status == "" {
		e.Status = database.EmployeeActive
	}
	m.employees[e.ID] = e
}

// GetEmployee returns an employee, nil if not enrolled
func (m *MockEmployeeStore) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	if m.GetEmployeeError != nil {
		return nil, m.GetEmployeeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by ID
func (m *MockEmployeeStore) ListEmployees(ctx context.Context) ([]database.Employee, error) {
	if m.ListEmployeesError != nil {
		return nil, m.ListEmployeesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b database.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetFaceSamples returns all samples
func (m *MockEmployeeStore) GetFaceSamples(ctx context.Context) ([]database.FaceSample, error) {
	if m.GetFaceSamplesError != nil {
		return nil, m.GetFaceSamplesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.samples), nil
}

// SampleStats returns the sample count and highest sample ID
func (m *MockEmployeeStore) SampleStats(ctx context.Context) (int64, int64, error) {
	if m.GetFaceSamplesError != nil {
		return 0, 0, m.GetFaceSamplesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var maxID int64
	for _, s := range m.samples {
		maxID = max(maxID, s.ID)
	}
	return int64(len(m.samples)), maxID, nil
}

// NearestSample returns the closest sample by cosine distance
func (m *MockEmployeeStore) NearestSample(ctx context.Context, embedding []float32) (*database.FaceSample, float64, error) {
	if m.GetFaceSamplesError != nil {
		return nil, 0, m.GetFaceSamplesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *database.FaceSample
	bestDist := math.MaxFloat64
	for i := range m.samples {
		d := database.CosineDistance(embedding, m.samples[i].Embedding)
		if d < bestDist {
			s := m.samples[i]
			best, bestDist = &s, d
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	return best, bestDist, nil
}

// CreateEmployee enrolls an employee, rejecting duplicates
func (m *MockEmployeeStore) CreateEmployee(ctx context.Context, e database.Employee, samples []database.FaceSample) error {
	if m.CreateEmployeeError != nil {
		return m.CreateEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; ok {
		return database.ErrDuplicateEmployee
	}
	m.addLocked(e, samples)
	return nil
}

// DeleteEmployee removes an employee and its samples
func (m *MockEmployeeStore) DeleteEmployee(ctx context.Context, id string) error {
	if m.DeleteEmployeeError != nil {
		return m.DeleteEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.employees, id)
	m.samples = slices.DeleteFunc(m.samples, func(s database.FaceSample) bool { return s.EmployeeID == id })
	return nil
}
