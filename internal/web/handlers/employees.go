package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/report"
)

// EmployeesHandler serves enrolled employees and their history
type EmployeesHandler struct {
	employees database.EmployeeReader
	reports   *report.Service
	logger    zerolog.Logger
}

// NewEmployeesHandler creates a new employees handler
func NewEmployeesHandler(employees database.EmployeeReader, reports *report.Service, logger zerolog.Logger) *EmployeesHandler {
	return &EmployeesHandler{employees: employees, reports: reports, logger: logger}
}

// List returns enrolled employees, optionally filtered by ?q= on the name
// (case and diacritics insensitive)
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.ListEmployees(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list employees")
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	if q := facematch.NormalizePersonName(r.URL.Query().Get("q")); q != "" {
		filtered := employees[:0]
		for _, e := range employees {
			if strings.Contains(facematch.NormalizePersonName(e.Name), q) || e.ID == q {
				filtered = append(filtered, e)
			}
		}
		employees = filtered
	}

	respondJSON(w, http.StatusOK, toEmployeeResponses(employees))
}

// Attendance returns the latest records of an employee (?limit=, default 30)
func (h *EmployeesHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, err := queryInt(r, "limit", constants.DefaultEmployeeHistoryLimit)
	if err != nil || limit < 1 || limit > constants.MaxEmployeeHistoryLimit {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 366")
		return
	}

	rep, err := h.reports.Employee(r.Context(), id, limit)
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, EmployeeAttendanceResponse{
		EmployeeID:   rep.EmployeeID,
		EmployeeName: rep.EmployeeName,
		TotalHours:   rep.TotalHours,
		Records:      toRecordResponses(rep.Records),
	})
}
