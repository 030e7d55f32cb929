package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/report"
)

// AttendanceHandler serves ledger queries
type AttendanceHandler struct {
	reports *report.Service
	now     func() time.Time
	logger  zerolog.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(reports *report.Service, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{reports: reports, now: time.Now, logger: logger}
}

// ByDate returns the records of ?date= (default today)
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.reports.Today(h.now())
	}

	records, err := h.reports.Day(r.Context(), date)
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AttendanceListResponse{
		From:    date,
		To:      date,
		Count:   len(records),
		Records: toRecordResponses(records),
	})
}

// Range returns the records between ?from= and ?to=
func (h *AttendanceHandler) Range(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	records, err := h.reports.Range(r.Context(), from, to)
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AttendanceListResponse{
		From:    from,
		To:      to,
		Count:   len(records),
		Records: toRecordResponses(records),
	})
}
