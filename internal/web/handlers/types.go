package handlers

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRecordResponse represents a ledger row in API responses
type AttendanceRecordResponse struct {
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	Date         string     `json:"date"`
	CheckIn      time.Time  `json:"check_in"`
	CheckOut     *time.Time `json:"check_out"`
	WorkingHours float64    `json:"working_hours"`
}

// EmployeeResponse represents an enrolled employee in API responses
type EmployeeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	SampleCount int       `json:"sample_count"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// AttendanceListResponse wraps a list of records
type AttendanceListResponse struct {
	From    string                     `json:"from"`
	To      string                     `json:"to"`
	Count   int                        `json:"count"`
	Records []AttendanceRecordResponse `json:"records"`
}

// EmployeeAttendanceResponse is the history of one employee
type EmployeeAttendanceResponse struct {
	EmployeeID   string                     `json:"employee_id"`
	EmployeeName string                     `json:"employee_name"`
	TotalHours   float64                    `json:"total_hours"`
	Records      []AttendanceRecordResponse `json:"records"`
}

// SummaryResponse represents per-employee totals
type SummaryResponse struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	DaysPresent  int     `json:"days_present"`
	TotalHours   float64 `json:"total_hours"`
	AverageHours float64 `json:"average_hours"`
}

// DailyResponse is the combined report of one day
type DailyResponse struct {
	Date              string                     `json:"date"`
	Present           []AttendanceRecordResponse `json:"present"`
	Incomplete        []AttendanceRecordResponse `json:"incomplete"`
	Absent            []EmployeeResponse         `json:"absent"`
	Enrolled          int                        `json:"enrolled"`
	CompleteCheckouts int                        `json:"complete_checkouts"`
	AttendanceRate    float64                    `json:"attendance_rate"`
}

func toRecordResponses(records []database.AttendanceRecord) []AttendanceRecordResponse {
	out := make([]AttendanceRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, AttendanceRecordResponse{
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			Date:         r.Date,
			CheckIn:      r.CheckIn,
			CheckOut:     r.CheckOut,
			WorkingHours: r.WorkingHours,
		})
	}
	return out
}

func toEmployeeResponses(employees []database.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, EmployeeResponse{
			ID:          e.ID,
			Name:        e.Name,
			Status:      e.Status,
			SampleCount: e.SampleCount,
			EnrolledAt:  e.EnrolledAt,
		})
	}
	return out
}
