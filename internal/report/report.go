// Package report builds read-only attendance reports over the ledger and the
// enrolled employees.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("invalid date range")
)

// Roster lists the employees expected at work.
type Roster interface {
	GetEmployee(ctx context.Context, id string) (*database.Employee, error)
	ListEmployees(ctx context.Context) ([]database.Employee, error)
}

// EmployeeReport is the recent history of one employee.
type EmployeeReport struct {
	EmployeeID   string
	EmployeeName string
	Records      []database.AttendanceRecord
	TotalHours   float64
}

// DailyReport combines presence, missing check-outs and absences of one day.
type DailyReport struct {
	Date              string
	Present           []database.AttendanceRecord
	Incomplete        []database.AttendanceRecord
	Absent            []database.Employee
	Enrolled          int
	CompleteCheckouts int
	AttendanceRate    float64 // percent of enrolled present, one decimal
}

// Service answers report queries.
type Service struct {
	ledger database.AttendanceReader
	roster Roster
	loc    *time.Location
}

// NewService creates a report service. Relative periods (today, week, month)
// are computed in loc.
func NewService(ledger database.AttendanceReader, roster Roster, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{ledger: ledger, roster: roster, loc: loc}
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidateRange checks from <= to and the range width limit.
func ValidateRange(from, to string) error {
	f, err := ParseDate(from)
	if err != nil {
		return err
	}
	t, err := ParseDate(to)
	if err != nil {
		return err
	}
	if t.Before(f) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	if days := int(t.Sub(f).Hours()/24) + 1; days > constants.MaxReportRangeDays {
		return fmt.Errorf("%w: %d days, at most %d", ErrInvalidRange, days, constants.MaxReportRangeDays)
	}
	return nil
}

// Today returns the calendar day of now.
func (s *Service) Today(now time.Time) string {
	return now.In(s.loc).Format(constants.DateLayout)
}

// LastDays returns the range covering the given number of days before now up
// to and including today.
func (s *Service) LastDays(now time.Time, days int) (string, string) {
	local := now.In(s.loc)
	return local.AddDate(0, 0, -days).Format(constants.DateLayout), local.Format(constants.DateLayout)
}

// Day returns every record of a day ordered by check-in.
func (s *Service) Day(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	return s.ledger.ListByDate(ctx, date)
}

// Range returns every record between from and to inclusive.
func (s *Service) Range(ctx context.Context, from, to string) ([]database.AttendanceRecord, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}
	return s.ledger.ListRange(ctx, from, to)
}

// Employee returns the latest records of an employee with their total hours.
// An ID that is neither enrolled nor present in the ledger is ErrNotFound.
func (s *Service) Employee(ctx context.Context, id string, limit int) (EmployeeReport, error) {
	if limit <= 0 {
		limit = constants.DefaultEmployeeHistoryLimit
	}
	records, err := s.ledger.ListByEmployee(ctx, id, limit)
	if err != nil {
		return EmployeeReport{}, err
	}

	report := EmployeeReport{EmployeeID: id, Records: records}
	employee, err := s.roster.GetEmployee(ctx, id)
	if err != nil {
		return EmployeeReport{}, err
	}
	switch {
	case employee != nil:
		report.EmployeeName = employee.Name
	case len(records) > 0:
		report.EmployeeName = records[0].EmployeeName
	default:
		return EmployeeReport{}, fmt.Errorf("employee %s: %w", id, database.ErrNotFound)
	}

	for _, r := range records {
		report.TotalHours += r.WorkingHours
	}
	report.TotalHours = round2(report.TotalHours)
	return report, nil
}

// Summary aggregates days present and hours per employee.
func (s *Service) Summary(ctx context.Context, from, to string) ([]database.AttendanceSummary, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}
	return s.ledger.Summarize(ctx, from, to)
}

// Incomplete returns records of a day without a check-out. An empty date
// covers every day.
func (s *Service) Incomplete(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if date != "" {
		if _, err := ParseDate(date); err != nil {
			return nil, err
		}
	}
	return s.ledger.ListIncomplete(ctx, date)
}

// Absent returns active enrolled employees with no record on date.
func (s *Service) Absent(ctx context.Context, date string) ([]database.Employee, error) {
	records, err := s.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	employees, err := s.activeEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return absentFrom(employees, records), nil
}

// Daily builds the combined report of one day.
func (s *Service) Daily(ctx context.Context, date string) (DailyReport, error) {
	records, err := s.Day(ctx, date)
	if err != nil {
		return DailyReport{}, err
	}
	employees, err := s.activeEmployees(ctx)
	if err != nil {
		return DailyReport{}, err
	}

	report := DailyReport{
		Date:       date,
		Present:    records,
		Incomplete: []database.AttendanceRecord{},
		Absent:     absentFrom(employees, records),
		Enrolled:   len(employees),
	}
	for _, r := range records {
		if r.CheckedOut() {
			report.CompleteCheckouts++
		} else {
			report.Incomplete = append(report.Incomplete, r)
		}
	}
	if report.Enrolled > 0 {
		report.AttendanceRate = math.Round(float64(len(records))/float64(report.Enrolled)*1000) / 10
	}
	return report, nil
}

func (s *Service) activeEmployees(ctx context.Context) ([]database.Employee, error) {
	employees, err := s.roster.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return slices.DeleteFunc(employees, func(e database.Employee) bool {
		return e.Status == database.EmployeeInactive
	}), nil
}

func absentFrom(employees []database.Employee, records []database.AttendanceRecord) []database.Employee {
	present := make(map[string]struct{}, len(records))
	for _, r := range records {
		present[r.EmployeeID] = struct{}{}
	}
	absent := []database.Employee{}
	for _, e := range employees {
		if _, ok := present[e.ID]; !ok {
			absent = append(absent, e)
		}
	}
	return absent
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
