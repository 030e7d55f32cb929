package enroll

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// queueDetector returns one prepared result per call.
type queueDetector struct {
	results [][]facematch.Face
	err     error
	calls   int
}

func (q *queueDetector) DetectFaces(context.Context, []byte) ([]facematch.Face, error) {
	if q.err != nil {
		return nil, q.err
	}
	i := q.calls
	q.calls++
	if i >= len(q.results) {
		return nil, nil
	}
	return q.results[i], nil
}

func face(embedding ...float32) []facematch.Face {
	return []facematch.Face{{BBox: []float64{0, 0, 80, 80}, DetScore: 0.9, Embedding: embedding}}
}

func images(t *testing.T, n int) []Image {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 160, 120))); err != nil {
		t.Fatal(err)
	}
	out := make([]Image, n)
	for i := range out {
		out[i] = Image{Name: string(rune('a'+i)) + ".png", Data: buf.Bytes()}
	}
	return out
}

func testOptions() Options {
	return Options{MinSamples: 2, DuplicateDistance: 0.2, MaxFrameSize: 1280, MinFaceSize: 40, MinDetScore: 0.5}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"101", "101", false},
		{"  42 ", "42", false},
		{"0", "", true},
		{"-5", "", true},
		{"abc", "", true},
		{"", "", true},
		{"12.5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEmployeeID) {
				t.Errorf("error = %v, want ErrInvalidEmployeeID", err)
			}
			if got != tt.want {
				t.Errorf("ValidateID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestService_Enroll(t *testing.T) {
	store := mock.NewMockEmployeeStore()
	detector := &queueDetector{results: [][]facematch.Face{
		face(1, 0, 0),
		nil, // no face in the second photo
		face(0.98, 0.02, 0),
	}}
	svc := NewService(store, nil, detector, testOptions(), zerolog.Nop())

	var progress []int
	result, err := svc.Enroll(context.Background(), " 101 ", "  Asha   Rao ", images(t, 3), func(done, total int, _ string) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	if result.Employee.ID != "101" || result.Employee.Name != "Asha Rao" {
		t.Errorf("Employee = %+v", result.Employee)
	}
	if result.Samples != 2 {
		t.Errorf("Samples = %d, want 2", result.Samples)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "b.png" {
		t.Errorf("Skipped = %v, want [b.png]", result.Skipped)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}

	stored, _ := store.GetEmployee(context.Background(), "101")
	if stored == nil || stored.SampleCount != 2 {
		t.Fatalf("stored employee = %+v, want 2 samples", stored)
	}
	samples, _ := store.GetFaceSamples(context.Background())
	if len(samples) != 2 || samples[0].Source != "a.png" || samples[1].Source != "c.png" {
		t.Errorf("samples = %+v", samples)
	}
}

func TestService_EnrollRejects(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		empName  string
		images   int
		detector *queueDetector
		setup    func(*mock.MockEmployeeStore)
		wantErr  error
	}{
		{
			name: "non numeric id", id: "A-7", empName: "Asha", images: 2,
			detector: &queueDetector{}, wantErr: ErrInvalidEmployeeID,
		},
		{
			name: "blank name", id: "101", empName: "   ", images: 2,
			detector: &queueDetector{}, wantErr: ErrEmptyName,
		},
		{
			name: "duplicate id", id: "101", empName: "Asha", images: 2,
			detector: &queueDetector{},
			setup: func(s *mock.MockEmployeeStore) {
				s.AddEmployee(database.Employee{ID: "101", Name: "Someone"})
			},
			wantErr: database.ErrDuplicateEmployee,
		},
		{
			name: "too few images", id: "101", empName: "Asha", images: 1,
			detector: &queueDetector{}, wantErr: ErrTooFewSamples,
		},
		{
			name: "too few faces", id: "101", empName: "Asha", images: 3,
			detector: &queueDetector{results: [][]facematch.Face{face(1, 0), nil, nil}},
			wantErr:  ErrTooFewSamples,
		},
		{
			name: "face of another employee", id: "101", empName: "Asha", images: 2,
			detector: &queueDetector{results: [][]facematch.Face{face(0, 1), face(0, 1)}},
			setup: func(s *mock.MockEmployeeStore) {
				s.AddEmployee(database.Employee{ID: "102", Name: "Ben"}, database.FaceSample{Embedding: []float32{0, 1}})
			},
			wantErr: ErrFaceAlreadyEnrolled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewMockEmployeeStore()
			if tt.setup != nil {
				tt.setup(store)
			}
			before, _ := store.ListEmployees(context.Background())

			svc := NewService(store, nil, tt.detector, testOptions(), zerolog.Nop())
			_, err := svc.Enroll(context.Background(), tt.id, tt.empName, images(t, tt.images), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Enroll() error = %v, want %v", err, tt.wantErr)
			}
			after, _ := store.ListEmployees(context.Background())
			if len(after) != len(before) {
				t.Errorf("rejected enrollment stored an employee: %d -> %d", len(before), len(after))
			}
		})
	}
}

func TestService_EnrollDetectorError(t *testing.T) {
	svc := NewService(mock.NewMockEmployeeStore(), nil, &queueDetector{err: errors.New("timeout")}, testOptions(), zerolog.Nop())
	if _, err := svc.Enroll(context.Background(), "101", "Asha", images(t, 2), nil); err == nil {
		t.Error("expected error")
	}
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		purge      bool
		wantPurged int64
		wantLeft   int
	}{
		{"keep attendance", false, 0, 2},
		{"purge attendance", true, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewMockEmployeeStore()
			store.AddEmployee(database.Employee{ID: "101", Name: "Asha"}, database.FaceSample{Embedding: []float32{1, 0}})
			ledger := mock.NewMockLedger()
			checkIn := mustTime(t, "2024-03-04T08:00:00Z")
			ledger.AddRecord(database.AttendanceRecord{EmployeeID: "101", EmployeeName: "Asha", Date: "2024-03-04", CheckIn: checkIn})
			ledger.AddRecord(database.AttendanceRecord{EmployeeID: "101", EmployeeName: "Asha", Date: "2024-03-05", CheckIn: checkIn.AddDate(0, 0, 1)})

			svc := NewService(store, ledger, &queueDetector{}, testOptions(), zerolog.Nop())
			purged, err := svc.Remove(ctx, "101", tt.purge)
			if err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if purged != tt.wantPurged {
				t.Errorf("purged = %d, want %d", purged, tt.wantPurged)
			}
			if ledger.Len() != tt.wantLeft {
				t.Errorf("ledger has %d records, want %d", ledger.Len(), tt.wantLeft)
			}
			if e, _ := store.GetEmployee(ctx, "101"); e != nil {
				t.Error("employee still enrolled")
			}
			if count, _, _ := store.SampleStats(ctx); count != 0 {
				t.Errorf("%d samples left, want 0", count)
			}
		})
	}
}

func TestService_RemoveUnknown(t *testing.T) {
	svc := NewService(mock.NewMockEmployeeStore(), mock.NewMockLedger(), &queueDetector{}, testOptions(), zerolog.Nop())
	if _, err := svc.Remove(context.Background(), "999", true); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestService_EnrollSkipsRepeatedPhotos(t *testing.T) {
	store := mock.NewMockEmployeeStore()
	detector := &queueDetector{results: [][]facematch.Face{face(1, 0, 0), face(0, 1, 0), face(0, 0, 1)}}
	opts := testOptions()
	opts.MinSamples = 1
	opts.RepeatedPhotoBits = 5
	svc := NewService(store, nil, detector, opts, zerolog.Nop())

	result, err := svc.Enroll(context.Background(), "101", "Asha Rao", images(t, 3), nil)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if result.Samples != 1 {
		t.Errorf("Samples = %d, want 1", result.Samples)
	}
	if len(result.Repeated) != 2 || result.Repeated[0] != "b.png" || result.Repeated[1] != "c.png" {
		t.Errorf("Repeated = %v, want [b.png c.png]", result.Repeated)
	}
	if detector.calls != 1 {
		t.Errorf("detector calls = %d, want 1", detector.calls)
	}
}

func TestService_EnrollRepeatedPhotosDoNotCount(t *testing.T) {
	store := mock.NewMockEmployeeStore()
	detector := &queueDetector{results: [][]facematch.Face{face(1, 0, 0), face(1, 0, 0)}}
	opts := testOptions()
	opts.RepeatedPhotoBits = 5
	svc := NewService(store, nil, detector, opts, zerolog.Nop())

	_, err := svc.Enroll(context.Background(), "101", "Asha Rao", images(t, 2), nil)
	if !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("Enroll() error = %v, want %v", err, ErrTooFewSamples)
	}
	if emp, _ := store.GetEmployee(context.Background(), "101"); emp != nil {
		t.Errorf("employee stored despite failed enrollment: %+v", emp)
	}
}
