package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeRepository provides PostgreSQL-backed storage of enrolled employees
// and their face samples
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeQuery = `
	SELECT e.id, e.name, e.status, e.enrolled_at, COUNT(s.id)
	FROM employees e
	LEFT JOIN face_samples s ON s.employee_id = e.id
`

func scanEmployee(scanner interface{ Scan(...any) error }) (database.Employee, error) {
	var e database.Employee
	err := scanner.Scan(&e.ID, &e.Name, &e.Status, &e.EnrolledAt, &e.SampleCount)
	return e, err
}

// GetEmployee returns an employee by ID, nil if not enrolled
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, employeeQuery+` WHERE e.id = $1 GROUP BY e.id`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by ID
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, employeeQuery+` GROUP BY e.id ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

// GetFaceSamples returns every stored face sample ordered by ID
func (r *EmployeeRepository) GetFaceSamples(ctx context.Context) ([]database.FaceSample, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, embedding, det_score, source, created_at
		FROM face_samples ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("get face samples: %w", err)
	}
	defer rows.Close()

	var out []database.FaceSample
	for rows.Next() {
		var s database.FaceSample
		var vec pgvector.Vector
		if err := rows.Scan(&s.ID, &s.EmployeeID, &vec, &s.DetScore, &s.Source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face sample: %w", err)
		}
		s.Embedding = vec.Slice()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face samples: %w", err)
	}
	return out, nil
}

// SampleStats returns the sample count and the highest sample ID
func (r *EmployeeRepository) SampleStats(ctx context.Context) (int64, int64, error) {
	var count, maxID int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(MAX(id), 0) FROM face_samples`).Scan(&count, &maxID)
	if err != nil {
		return 0, 0, fmt.Errorf("sample stats: %w", err)
	}
	return count, maxID, nil
}

// NearestSample returns the stored sample closest to embedding by cosine
// distance, nil when there are no samples.
func (r *EmployeeRepository) NearestSample(ctx context.Context, embedding []float32) (*database.FaceSample, float64, error) {
	var s database.FaceSample
	var distance float64
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_id, det_score, source, created_at, embedding <=> $1::vector
		FROM face_samples
		ORDER BY embedding <=> $1::vector
		LIMIT 1
	`, pgvector.NewVector(embedding)).Scan(&s.ID, &s.EmployeeID, &s.DetScore, &s.Source, &s.CreatedAt, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("nearest sample: %w", err)
	}
	return &s, distance, nil
}

// CreateEmployee enrolls an employee with its samples in one transaction
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, e database.Employee, samples []database.FaceSample) error {
	status := e.Status
	if status == "" {
		status = database.EmployeeActive
	}

	return r.pool.InTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO employees (id, name, status) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Name, status)
		if err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		} else if n == 0 {
			return database.ErrDuplicateEmployee
		}

		for i := range samples {
			s := &samples[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO face_samples (employee_id, embedding, det_score, source)
				VALUES ($1, $2::vector, $3, $4)
			`, e.ID, pgvector.NewVector(s.Embedding), s.DetScore, s.Source)
			if err != nil {
				return fmt.Errorf("insert face sample %d: %w", i, err)
			}
		}
		return nil
	})
}

// DeleteEmployee removes an employee; samples are removed by the foreign key cascade
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
