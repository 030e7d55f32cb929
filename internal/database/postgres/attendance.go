package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed ledger storage
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = `employee_id, employee_name, date::text, check_in, check_out, working_hours`

func scanAttendance(scanner interface{ Scan(...any) error }) (database.AttendanceRecord, error) {
	var r database.AttendanceRecord
	var checkOut sql.NullTime
	if err := scanner.Scan(&r.EmployeeID, &r.EmployeeName, &r.Date, &r.CheckIn, &checkOut, &r.WorkingHours); err != nil {
		return r, fmt.Errorf("scan attendance: %w", err)
	}
	if checkOut.Valid {
		t := checkOut.Time
		r.CheckOut = &t
	}
	return r, nil
}

func (r *AttendanceRepository) list(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// Get returns the record of an employee on a day, nil if there is none
func (r *AttendanceRepository) Get(ctx context.Context, employeeID, date string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attendanceColumns+`
		FROM attendance WHERE employee_id = $1 AND date = $2::date`, employeeID, date)
	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &rec, nil
}

// ListByDate returns the records of one day ordered by check-in
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	records, err := r.list(ctx, `SELECT `+attendanceColumns+`
		FROM attendance WHERE date = $1::date
		ORDER BY check_in, employee_id`, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", date, err)
	}
	return records, nil
}

// ListByEmployee returns the newest records of an employee
func (r *AttendanceRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]database.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendance WHERE employee_id = $1
		ORDER BY date DESC`
	args := []any{employeeID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	records, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance of %s: %w", employeeID, err)
	}
	return records, nil
}

// ListRange returns records with from <= date <= to
func (r *AttendanceRepository) ListRange(ctx context.Context, from, to string) ([]database.AttendanceRecord, error) {
	records, err := r.list(ctx, `SELECT `+attendanceColumns+`
		FROM attendance WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date, check_in, employee_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance %s..%s: %w", from, to, err)
	}
	return records, nil
}

// ListIncomplete returns records of a day that were never checked out.
// An empty date lists every day, newest first.
func (r *AttendanceRepository) ListIncomplete(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if date == "" {
		records, err := r.list(ctx, `SELECT `+attendanceColumns+`
			FROM attendance WHERE check_out IS NULL
			ORDER BY date DESC, check_in, employee_id`)
		if err != nil {
			return nil, fmt.Errorf("list incomplete attendance: %w", err)
		}
		return records, nil
	}

	records, err := r.list(ctx, `SELECT `+attendanceColumns+`
		FROM attendance WHERE date = $1::date AND check_out IS NULL
		ORDER BY check_in, employee_id`, date)
	if err != nil {
		return nil, fmt.Errorf("list incomplete attendance for %s: %w", date, err)
	}
	return records, nil
}

// Summarize aggregates days present and hours per employee over a date range
func (r *AttendanceRepository) Summarize(ctx context.Context, from, to string) ([]database.AttendanceSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id,
		       (ARRAY_AGG(employee_name ORDER BY date DESC))[1],
		       COUNT(*),
		       COALESCE(SUM(working_hours), 0),
		       ROUND(COALESCE(SUM(working_hours), 0) / COUNT(*), 2)
		FROM attendance
		WHERE date BETWEEN $1::date AND $2::date
		GROUP BY employee_id
		ORDER BY 2, employee_id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize attendance: %w", err)
	}
	defer rows.Close()

	var out []database.AttendanceSummary
	for rows.Next() {
		var s database.AttendanceSummary
		if err := rows.Scan(&s.EmployeeID, &s.EmployeeName, &s.DaysPresent, &s.TotalHours, &s.AverageHours); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces the record keyed by (employee_id, date)
func (r *AttendanceRepository) Upsert(ctx context.Context, record database.AttendanceRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}

	var checkOut sql.NullTime
	if record.CheckOut != nil {
		checkOut = sql.NullTime{Time: *record.CheckOut, Valid: true}
	}

	return r.pool.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (employee_id, employee_name, date, check_in, check_out, working_hours)
			VALUES ($1, $2, $3::date, $4, $5, $6)
			ON CONFLICT (employee_id, date) DO UPDATE SET
				employee_name = EXCLUDED.employee_name,
				check_in = EXCLUDED.check_in,
				check_out = EXCLUDED.check_out,
				working_hours = EXCLUDED.working_hours,
				updated_at = NOW()
		`, record.EmployeeID, record.EmployeeName, record.Date, record.CheckIn, checkOut, record.WorkingHours)
		if err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
		return nil
	})
}

// DeleteByEmployee removes every record of an employee and returns the count deleted
func (r *AttendanceRepository) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE employee_id = $1", employeeID)
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return count, nil
}
