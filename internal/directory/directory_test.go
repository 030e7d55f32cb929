package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		raw      any
		wantName string
		wantErr  bool
	}{
		{"plain string", "101", "Asha", "Asha", false},
		{"whitespace", " 101 ", "  Asha   Rao ", "Asha Rao", false},
		{"string list", "102", []string{"Ben", "Engineering"}, "Ben", false},
		{"any list", "102", []any{"Ben", 42}, "Ben", false},
		{"json list text", "102", `["Ben Okafor", "Engineering"]`, "Ben Okafor", false},
		{"json string text", "103", `"Chen"`, "Chen", false},
		{"json object text", "103", `{"name": "Chen"}`, "Chen", false},
		{"text with bracket that is not json", "104", "[Dana", "[Dana", false},
		{"map", "105", map[string]any{"name": "Eve"}, "Eve", false},
		{"employee", "106", database.Employee{Name: "Finn"}, "Finn", false},
		{"empty id", "", "Asha", "", true},
		{"unknown id", "unknown", "Asha", "", true},
		{"empty name", "101", "   ", "", true},
		{"nil entry", "101", nil, "", true},
		{"empty list", "101", []string{}, "", true},
		{"unsupported type", "101", 3.14, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.id, tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEntry) {
					t.Fatalf("expected ErrMalformedEntry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Status != database.EmployeeActive {
				t.Errorf("status = %q, want active", got.Status)
			}
		})
	}
}

func TestEnrolled_Lookup(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEmployeeStore()
	store.AddEmployee(database.Employee{ID: "101", Name: "Asha"}, database.FaceSample{Embedding: []float32{1}})
	store.AddEmployee(database.Employee{ID: "102", Name: "Ben", Status: database.EmployeeInactive})
	d := NewEnrolled(store)

	e, found, err := d.Lookup(ctx, "101")
	if err != nil || !found || e.Name != "Asha" || e.SampleCount != 1 {
		t.Fatalf("unexpected lookup result %+v %v %v", e, found, err)
	}
	if _, found, _ := d.Lookup(ctx, "102"); found {
		t.Error("inactive employee must not resolve")
	}
	if _, found, _ := d.Lookup(ctx, "999"); found {
		t.Error("unknown employee must not resolve")
	}

	store.GetEmployeeError = errors.New("db down")
	if _, _, err := d.Lookup(ctx, "101"); err == nil {
		t.Error("expected error")
	}
}

type fakeHR map[string]string

func (f fakeHR) Lookup(_ context.Context, id string) (*mariadb.EmployeeRow, error) {
	details, ok := f[id]
	if !ok {
		return nil, nil
	}
	return &mariadb.EmployeeRow{ID: id, Details: details}, nil
}

func TestHR_Lookup(t *testing.T) {
	ctx := context.Background()
	d := NewHR(fakeHR{"101": "Asha Rao", "102": `["Ben Okafor"]`, "103": ""}, zerolog.Nop())

	tests := []struct {
		id        string
		wantFound bool
		wantName  string
	}{
		{"101", true, "Asha Rao"},
		{"102", true, "Ben Okafor"},
		{"103", false, ""}, // malformed entry is skipped
		{"999", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, found, err := d.Lookup(ctx, tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound || e.Name != tt.wantName {
				t.Errorf("Lookup(%s) = %+v,%v want %q,%v", tt.id, e, found, tt.wantName, tt.wantFound)
			}
		})
	}
}

type countingDirectory struct {
	employees map[string]string
	calls     int
}

func (c *countingDirectory) Lookup(_ context.Context, id string) (database.Employee, bool, error) {
	c.calls++
	name, ok := c.employees[id]
	return database.Employee{ID: id, Name: name}, ok, nil
}

func TestCached_Lookup(t *testing.T) {
	ctx := context.Background()
	src := &countingDirectory{employees: map[string]string{"101": "Asha"}}
	c, err := NewCached(src, 2)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, found, _ := c.Lookup(ctx, "101"); !found {
			t.Fatal("expected hit")
		}
	}
	if src.calls != 1 {
		t.Errorf("expected one source call, got %d", src.calls)
	}

	c.Lookup(ctx, "999")
	c.Lookup(ctx, "999")
	if src.calls != 3 {
		t.Errorf("misses must not be cached, got %d calls", src.calls)
	}

	c.Invalidate("101")
	c.Lookup(ctx, "101")
	if src.calls != 4 {
		t.Errorf("expected reload after invalidate, got %d calls", src.calls)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached employee, got %d", c.Len())
	}
}

func TestNewCached_InvalidSize(t *testing.T) {
	if _, err := NewCached(Chain{}, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestChain_Lookup(t *testing.T) {
	ctx := context.Background()
	hr := &countingDirectory{employees: map[string]string{"101": "Asha Rao"}}
	enrolled := &countingDirectory{employees: map[string]string{"101": "Asha", "102": "Ben"}}
	chain := Chain{hr, enrolled}

	if e, _, _ := chain.Lookup(ctx, "101"); e.Name != "Asha Rao" {
		t.Errorf("first directory should win, got %q", e.Name)
	}
	if e, found, _ := chain.Lookup(ctx, "102"); !found || e.Name != "Ben" {
		t.Errorf("expected fallback to second directory, got %+v", e)
	}
	if _, found, _ := chain.Lookup(ctx, "999"); found {
		t.Error("expected miss")
	}
}
