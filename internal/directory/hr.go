package directory

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
)

// HRQuery is the external HR lookup the HR directory reads from.
type HRQuery interface {
	Lookup(ctx context.Context, id string) (*mariadb.EmployeeRow, error)
}

// HR resolves names from an external HR database.
type HR struct {
	query  HRQuery
	logger zerolog.Logger
}

// NewHR creates a directory over an HR query.
func NewHR(query HRQuery, logger zerolog.Logger) *HR {
	return &HR{query: query, logger: logger}
}

// Lookup returns the HR entry of id. Malformed entries are logged and treated as missing.
func (d *HR) Lookup(ctx context.Context, id string) (database.Employee, bool, error) {
	row, err := d.query.Lookup(ctx, id)
	if err != nil {
		return database.Employee{}, false, err
	}
	if row == nil {
		return database.Employee{}, false, nil
	}
	employee, err := Normalize(row.ID, row.Details)
	if errors.Is(err, ErrMalformedEntry) {
		d.logger.Warn().Err(err).Str("employee_id", id).Msg("Ignoring malformed HR entry")
		return database.Employee{}, false, nil
	}
	if err != nil {
		return database.Employee{}, false, err
	}
	return employee, true, nil
}
