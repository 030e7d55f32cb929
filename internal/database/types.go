package database

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Employee statuses
const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

// Employee is an enrolled person the recognizer can identify.
type Employee struct {
	ID          string
	Name        string
	Status      string
	SampleCount int
	EnrolledAt  time.Time
}

// FaceSample is one enrolled face embedding of an employee.
type FaceSample struct {
	ID         int64
	EmployeeID string
	Embedding  []float32
	DetScore   float64
	Source     string // file name or camera the sample was taken from
	CreatedAt  time.Time
}

// AttendanceRecord is the ledger row for one employee on one calendar day.
type AttendanceRecord struct {
	EmployeeID   string
	EmployeeName string
	Date         string // 2006-01-02 in the attendance timezone
	CheckIn      time.Time
	CheckOut     *time.Time
	WorkingHours float64
}

// Errors returned by AttendanceRecord.Validate.
var (
	ErrMissingEmployeeID = errors.New("attendance record has no employee ID")
	ErrInvalidDate       = errors.New("attendance record date is not YYYY-MM-DD")
	ErrCheckOutBeforeIn  = errors.New("check-out is before check-in")
	ErrOpenRecordHours   = errors.New("record without check-out must have zero working hours")
)

// Validate checks the per-row invariants of the ledger.
func (r *AttendanceRecord) Validate() error {
	if r.EmployeeID == "" {
		return ErrMissingEmployeeID
	}
	if _, err := time.Parse(time.DateOnly, r.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}
	if r.CheckIn.IsZero() {
		return errors.New("attendance record has no check-in")
	}
	if r.CheckOut == nil {
		if r.WorkingHours != 0 {
			return ErrOpenRecordHours
		}
		return nil
	}
	if r.CheckOut.Before(r.CheckIn) {
		return ErrCheckOutBeforeIn
	}
	return nil
}

// CheckedOut reports whether the record has a check-out time.
func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOut != nil
}

// WorkingHours returns the hours between check-in and check-out rounded to 2 decimals.
func WorkingHours(checkIn, checkOut time.Time) float64 {
	h := checkOut.Sub(checkIn).Hours()
	if h < 0 {
		return 0
	}
	return math.Round(h*100) / 100
}

// AttendanceSummary aggregates an employee's records over a period.
type AttendanceSummary struct {
	EmployeeID   string
	EmployeeName string
	DaysPresent  int
	TotalHours   float64
	AverageHours float64
}

// SampleIndexMetadata identifies the sample set a trained index was built from.
type SampleIndexMetadata struct {
	SampleCount   int64     `json:"sample_count"`
	MaxSampleID   int64     `json:"max_sample_id"`
	EmployeeCount int       `json:"employee_count"`
	BuildTime     time.Time `json:"build_time"`
	Version       int       `json:"version"`
}
