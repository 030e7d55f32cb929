package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Renderer prints reports as aligned text tables.
type Renderer struct {
	w   io.Writer
	loc *time.Location

	title  *color.Color
	good   *color.Color
	warn   *color.Color
	bad    *color.Color
	subtle *color.Color
}

// NewRenderer creates a renderer showing times in loc.
func NewRenderer(w io.Writer, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{
		w:      w,
		loc:    loc,
		title:  color.New(color.FgCyan, color.Bold),
		good:   color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
		subtle: color.New(color.Faint),
	}
}

func (r *Renderer) header(width int, title string) {
	rule := strings.Repeat("=", width)
	fmt.Fprintln(r.w)
	r.title.Fprintln(r.w, rule)
	r.title.Fprintln(r.w, title)
	r.title.Fprintln(r.w, rule)
}

func (r *Renderer) rule(width int) {
	fmt.Fprintln(r.w, strings.Repeat("-", width))
}

func (r *Renderer) clock(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(r.loc).Format(constants.TimeLayout)
}

func (r *Renderer) checkOut(rec database.AttendanceRecord) string {
	if rec.CheckOut == nil {
		return "N/A"
	}
	return r.clock(*rec.CheckOut)
}

// Day prints the records of one day.
func (r *Renderer) Day(date string, records []database.AttendanceRecord) {
	r.header(80, "ATTENDANCE - "+date)
	fmt.Fprintf(r.w, "%-10s %-25s %-12s %-12s %-10s\n", "ID", "Name", "Check-IN", "Check-OUT", "Hours")
	r.rule(80)
	for _, rec := range records {
		fmt.Fprintf(r.w, "%-10s %-25s %-12s %-12s %-10.2f\n",
			rec.EmployeeID, truncate(rec.EmployeeName, 25), r.clock(rec.CheckIn), r.checkOut(rec), rec.WorkingHours)
	}
	r.footer(len(records), "record")
}

// Range prints the records of a period.
func (r *Renderer) Range(from, to string, records []database.AttendanceRecord) {
	r.header(90, fmt.Sprintf("ATTENDANCE REPORT - %s to %s", from, to))
	fmt.Fprintf(r.w, "%-12s %-10s %-25s %-10s %-10s %-10s\n", "Date", "ID", "Name", "Check-IN", "Check-OUT", "Hours")
	r.rule(90)
	for _, rec := range records {
		fmt.Fprintf(r.w, "%-12s %-10s %-25s %-10s %-10s %-10.2f\n",
			rec.Date, rec.EmployeeID, truncate(rec.EmployeeName, 25), r.clock(rec.CheckIn), r.checkOut(rec), rec.WorkingHours)
	}
	r.footer(len(records), "record")
}

// Employee prints the history of one employee.
func (r *Renderer) Employee(report EmployeeReport) {
	r.header(80, fmt.Sprintf("EMPLOYEE ATTENDANCE - %s (ID: %s)", report.EmployeeName, report.EmployeeID))
	fmt.Fprintf(r.w, "%-12s %-12s %-12s %-10s\n", "Date", "Check-IN", "Check-OUT", "Hours")
	r.rule(80)
	for _, rec := range report.Records {
		fmt.Fprintf(r.w, "%-12s %-12s %-12s %-10.2f\n", rec.Date, r.clock(rec.CheckIn), r.checkOut(rec), rec.WorkingHours)
	}
	r.rule(80)
	r.good.Fprintf(r.w, "Total working hours: %.2f\n", report.TotalHours)
}

// Summary prints per-employee totals of a period.
func (r *Renderer) Summary(from, to string, summaries []database.AttendanceSummary) {
	r.header(90, fmt.Sprintf("ATTENDANCE SUMMARY - %s to %s", from, to))
	fmt.Fprintf(r.w, "%-10s %-25s %-10s %-15s %-15s\n", "ID", "Name", "Days", "Total Hours", "Avg Hours/Day")
	r.rule(90)
	for _, s := range summaries {
		fmt.Fprintf(r.w, "%-10s %-25s %-10d %-15.2f %-15.2f\n",
			s.EmployeeID, truncate(s.EmployeeName, 25), s.DaysPresent, s.TotalHours, s.AverageHours)
	}
	r.footer(len(summaries), "employee")
}

// Incomplete prints records missing a check-out.
func (r *Renderer) Incomplete(date string, records []database.AttendanceRecord) {
	title := "INCOMPLETE CHECKOUTS"
	if date != "" {
		title += " - " + date
	}
	r.header(80, title)
	if len(records) == 0 {
		r.good.Fprintln(r.w, "No incomplete checkouts found.")
		return
	}
	fmt.Fprintf(r.w, "%-12s %-10s %-25s %-12s %-15s\n", "Date", "ID", "Name", "Check-IN", "Status")
	r.rule(80)
	for _, rec := range records {
		fmt.Fprintf(r.w, "%-12s %-10s %-25s %-12s ", rec.Date, rec.EmployeeID, truncate(rec.EmployeeName, 25), r.clock(rec.CheckIn))
		r.warn.Fprintln(r.w, "Missing OUT")
	}
	r.rule(80)
	fmt.Fprintf(r.w, "Total: %d incomplete checkout(s)\n", len(records))
}

// Absent prints enrolled employees without a record.
func (r *Renderer) Absent(date string, absent []database.Employee, enrolled int) {
	r.header(70, "ABSENT EMPLOYEES - "+date)
	if len(absent) == 0 {
		r.good.Fprintln(r.w, "All enrolled employees are present.")
		return
	}
	fmt.Fprintf(r.w, "%-10s %-30s %-20s\n", "ID", "Name", "Status")
	r.rule(70)
	for _, e := range absent {
		fmt.Fprintf(r.w, "%-10s %-30s ", e.ID, truncate(e.Name, 30))
		r.bad.Fprintln(r.w, "ABSENT")
	}
	r.rule(70)
	fmt.Fprintf(r.w, "Total Absent:   %d employee(s)\n", len(absent))
	fmt.Fprintf(r.w, "Total Enrolled: %d employee(s)\n", enrolled)
}

// Daily prints the combined report of one day.
func (r *Renderer) Daily(report DailyReport) {
	r.header(90, "DAILY ATTENDANCE REPORT - "+report.Date)

	r.good.Fprintf(r.w, "PRESENT EMPLOYEES (%d)\n", len(report.Present))
	fmt.Fprintf(r.w, "%-10s %-25s %-12s %-12s %-10s %-15s\n", "ID", "Name", "Check-IN", "Check-OUT", "Hours", "Status")
	r.rule(90)
	for _, rec := range report.Present {
		fmt.Fprintf(r.w, "%-10s %-25s %-12s %-12s %-10.2f ",
			rec.EmployeeID, truncate(rec.EmployeeName, 25), r.clock(rec.CheckIn), r.checkOut(rec), rec.WorkingHours)
		if rec.CheckedOut() {
			r.good.Fprintln(r.w, "Complete")
		} else {
			r.warn.Fprintln(r.w, "Missing OUT")
		}
	}

	if len(report.Incomplete) > 0 {
		fmt.Fprintln(r.w)
		r.warn.Fprintf(r.w, "INCOMPLETE CHECKOUTS (%d)\n", len(report.Incomplete))
		r.rule(90)
		for _, rec := range report.Incomplete {
			fmt.Fprintf(r.w, "%-10s %-25s %-12s %s\n", rec.EmployeeID, truncate(rec.EmployeeName, 25), r.clock(rec.CheckIn), "Remind to check out")
		}
	}

	if len(report.Absent) > 0 {
		fmt.Fprintln(r.w)
		r.bad.Fprintf(r.w, "ABSENT EMPLOYEES (%d)\n", len(report.Absent))
		r.rule(90)
		for _, e := range report.Absent {
			fmt.Fprintf(r.w, "%-10s %-30s %s\n", e.ID, truncate(e.Name, 30), "No check-in")
		}
	}

	r.header(90, "SUMMARY")
	fmt.Fprintf(r.w, "Total Enrolled Employees:  %d\n", report.Enrolled)
	fmt.Fprintf(r.w, "Present:                   %d (%.1f%%)\n", len(report.Present), report.AttendanceRate)
	fmt.Fprintf(r.w, "Absent:                    %d\n", len(report.Absent))
	fmt.Fprintf(r.w, "Complete Checkouts:        %d\n", report.CompleteCheckouts)
	fmt.Fprintf(r.w, "Incomplete Checkouts:      %d\n", len(report.Incomplete))
}

func (r *Renderer) footer(n int, noun string) {
	r.rule(80)
	r.subtle.Fprintf(r.w, "%d %s(s)\n", n, noun)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
