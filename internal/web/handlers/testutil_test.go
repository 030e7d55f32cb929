package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/report"
)

// fixedNow is the "today" of every handler under test
var fixedNow = time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)

func ts(date, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func record(id, name, date, in, out string) database.AttendanceRecord {
	r := database.AttendanceRecord{EmployeeID: id, EmployeeName: name, Date: date, CheckIn: ts(date, in)}
	if out != "" {
		o := ts(date, out)
		r.CheckOut = &o
		r.WorkingHours = database.WorkingHours(r.CheckIn, o)
	}
	return r
}

// testStores returns a ledger with two days of records and four enrolled employees
func testStores() (*mock.MockLedger, *mock.MockEmployeeStore) {
	ledger := mock.NewMockLedger()
	ledger.AddRecord(record("101", "Asha Rao", "2024-03-04", "08:00", "16:30"))
	ledger.AddRecord(record("102", "Ben Okafor", "2024-03-04", "09:15", ""))
	ledger.AddRecord(record("101", "Asha Rao", "2024-03-05", "08:10", "12:10"))
	ledger.AddRecord(record("103", "Chen Wei", "2024-03-05", "07:00", ""))

	store := mock.NewMockEmployeeStore()
	store.AddEmployee(database.Employee{ID: "101", Name: "Asha Rao"})
	store.AddEmployee(database.Employee{ID: "102", Name: "Ben Okafor"})
	store.AddEmployee(database.Employee{ID: "103", Name: "Chen Wei"})
	store.AddEmployee(database.Employee{ID: "104", Name: "Žofie Dvořáková"})
	return ledger, store
}

func testReports(ledger *mock.MockLedger, store *mock.MockEmployeeStore) *report.Service {
	return report.NewService(ledger, store, time.UTC)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decode unmarshals a recorder body into out
func decode(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}

var nopLogger = zerolog.Nop()
