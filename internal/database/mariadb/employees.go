package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DefaultEmployeeQuery selects the display name of one employee from the HR schema.
const DefaultEmployeeQuery = "SELECT employee_id, full_name FROM employees WHERE employee_id = ?"

// EmployeeRow is an employee entry as stored by the HR system. Details is
// whatever the name column holds: plain text, a JSON string or a JSON list.
type EmployeeRow struct {
	ID      string
	Details string
}

// EmployeeQuery reads employees from an external HR database.
type EmployeeQuery struct {
	pool  *Pool
	query string
}

// NewEmployeeQuery prepares lookups with query, which must select the
// employee ID and name column and take the ID as its only placeholder.
func NewEmployeeQuery(pool *Pool, query string) (*EmployeeQuery, error) {
	if query == "" {
		query = DefaultEmployeeQuery
	}
	if strings.Count(query, "?") != 1 {
		return nil, fmt.Errorf("employee query must have exactly one placeholder: %q", query)
	}
	return &EmployeeQuery{pool: pool, query: query}, nil
}

// Lookup returns the HR row of an employee, nil when there is none.
func (q *EmployeeQuery) Lookup(ctx context.Context, id string) (*EmployeeRow, error) {
	var row EmployeeRow
	var details sql.NullString
	err := q.pool.db.QueryRowContext(ctx, q.query, id).Scan(&row.ID, &details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query HR employee %s: %w", id, err)
	}
	row.Details = details.String
	return &row, nil
}
