package directory

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Enrolled resolves employees from the enrollment store.
type Enrolled struct {
	repo database.EmployeeReader
}

// NewEnrolled creates a directory over enrolled employees.
func NewEnrolled(repo database.EmployeeReader) *Enrolled {
	return &Enrolled{repo: repo}
}

// Lookup returns an active enrolled employee.
func (d *Enrolled) Lookup(ctx context.Context, id string) (database.Employee, bool, error) {
	e, err := d.repo.GetEmployee(ctx, id)
	if err != nil {
		return database.Employee{}, false, fmt.Errorf("lookup enrolled employee: %w", err)
	}
	if e == nil || e.Status == database.EmployeeInactive {
		return database.Employee{}, false, nil
	}
	employee, err := Normalize(e.ID, *e)
	if err != nil {
		return database.Employee{}, false, err
	}
	employee.EnrolledAt = e.EnrolledAt
	employee.SampleCount = e.SampleCount
	return employee, true, nil
}
