package directory

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Chain consults directories in order and returns the first match.
type Chain []Directory

// Lookup returns the first directory's match. An error stops the chain.
func (c Chain) Lookup(ctx context.Context, id string) (database.Employee, bool, error) {
	for _, d := range c {
		e, found, err := d.Lookup(ctx, id)
		if err != nil {
			return database.Employee{}, false, err
		}
		if found {
			return e, true, nil
		}
	}
	return database.Employee{}, false, nil
}
