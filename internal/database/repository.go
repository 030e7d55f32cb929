package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmployee is returned when enrolling an ID that already exists.
var ErrDuplicateEmployee = errors.New("employee already enrolled")

// AttendanceReader provides read-only access to the attendance ledger.
// Dates are calendar days formatted as 2006-01-02.
type AttendanceReader interface {
	// Get returns the record for an employee and day, nil if there is none
	Get(ctx context.Context, employeeID, date string) (*AttendanceRecord, error)
	// ListByDate returns all records of one day ordered by check-in
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
	// ListByEmployee returns the most recent records of an employee, newest first
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]AttendanceRecord, error)
	// ListRange returns records with from <= date <= to ordered by date and check-in
	ListRange(ctx context.Context, from, to string) ([]AttendanceRecord, error)
	// ListIncomplete returns records of a day that have no check-out; an empty date means every day
	ListIncomplete(ctx context.Context, date string) ([]AttendanceRecord, error)
	// Summarize aggregates days present and hours per employee over a date range
	Summarize(ctx context.Context, from, to string) ([]AttendanceSummary, error)
}

// AttendanceWriter provides write access to the attendance ledger.
type AttendanceWriter interface {
	AttendanceReader

	// Upsert inserts or replaces the record keyed by (employee ID, date) atomically
	Upsert(ctx context.Context, record AttendanceRecord) error
	// DeleteByEmployee removes every record of an employee and returns the count deleted
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
}

// EmployeeReader provides read-only access to enrolled employees and their samples.
type EmployeeReader interface {
	// GetEmployee returns the employee, nil if not enrolled
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	// ListEmployees returns all enrolled employees ordered by ID
	ListEmployees(ctx context.Context) ([]Employee, error)
	// GetFaceSamples returns every stored face sample
	GetFaceSamples(ctx context.Context) ([]FaceSample, error)
	// SampleStats returns the sample count and the highest sample ID
	SampleStats(ctx context.Context) (count int64, maxID int64, err error)
	// NearestSample returns the sample closest to embedding and its cosine distance, nil if none
	NearestSample(ctx context.Context, embedding []float32) (*FaceSample, float64, error)
}

// EmployeeWriter provides write access to employees and their samples.
type EmployeeWriter interface {
	EmployeeReader

	// CreateEmployee enrolls an employee with its face samples in one transaction.
	// Returns ErrDuplicateEmployee if the ID is taken.
	CreateEmployee(ctx context.Context, employee Employee, samples []FaceSample) error
	// DeleteEmployee removes the employee and its samples. Returns ErrNotFound if absent.
	DeleteEmployee(ctx context.Context, id string) error
}
