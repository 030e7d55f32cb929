// Package directory resolves employee IDs to display names.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// ErrMalformedEntry is returned when an external entry cannot be turned into an Employee.
var ErrMalformedEntry = errors.New("malformed directory entry")

// Directory maps employee IDs to employees.
type Directory interface {
	Lookup(ctx context.Context, id string) (database.Employee, bool, error)
}

// NormalizeID trims an employee ID and rejects IDs that cannot name anyone.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, constants.UnknownLabel) {
		return "", fmt.Errorf("%w: invalid employee id %q", ErrMalformedEntry, id)
	}
	return id, nil
}

// Normalize coerces a raw directory entry into an Employee. The entry may be a
// name string, a JSON-encoded string or list, a list whose first element is the
// name, a map with a "name" key, or an Employee.
func Normalize(id string, raw any) (database.Employee, error) {
	id, err := NormalizeID(id)
	if err != nil {
		return database.Employee{}, err
	}

	name, err := nameOf(raw)
	if err != nil {
		return database.Employee{}, fmt.Errorf("employee %s: %w", id, err)
	}
	name = facematch.CleanDisplayName(name)
	if name == "" {
		return database.Employee{}, fmt.Errorf("%w: employee %s has no name", ErrMalformedEntry, id)
	}
	return database.Employee{ID: id, Name: name, Status: database.EmployeeActive}, nil
}

func nameOf(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return decodeText(v)
	case []string:
		if len(v) == 0 {
			return "", nil
		}
		return v[0], nil
	case []any:
		if len(v) == 0 {
			return "", nil
		}
		return nameOf(v[0])
	case map[string]any:
		return nameOf(v["name"])
	case database.Employee:
		return v.Name, nil
	case *database.Employee:
		if v == nil {
			return "", nil
		}
		return v.Name, nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrMalformedEntry, raw)
	}
}

// decodeText unwraps JSON-encoded values some HR systems store in text columns.
func decodeText(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, `"`) && !strings.HasPrefix(trimmed, "{") {
		return s, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return s, nil //nolint:nilerr // not JSON, use the text as is
	}
	if str, ok := decoded.(string); ok {
		return str, nil
	}
	return nameOf(decoded)
}
