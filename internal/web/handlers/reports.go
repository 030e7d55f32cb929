package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/report"
)

// ReportsHandler serves aggregate reports
type ReportsHandler struct {
	reports *report.Service
	now     func() time.Time
	logger  zerolog.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reports *report.Service, logger zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, now: time.Now, logger: logger}
}

func (h *ReportsHandler) dateParam(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return h.reports.Today(h.now())
}

// Summary returns per-employee totals between ?from= and ?to= (default last 30 days)
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		from, to = h.reports.LastDays(h.now(), 30)
	}

	summaries, err := h.reports.Summary(r.Context(), from, to)
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	out := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, SummaryResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// Incomplete returns records missing a check-out on ?date= (all days when ?all=true)
func (h *ReportsHandler) Incomplete(w http.ResponseWriter, r *http.Request) {
	date := h.dateParam(r)
	if r.URL.Query().Get("all") == "true" {
		date = ""
	}

	records, err := h.reports.Incomplete(r.Context(), date)
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecordResponses(records))
}

// Absent returns enrolled employees without a record on ?date= (default today)
func (h *ReportsHandler) Absent(w http.ResponseWriter, r *http.Request) {
	absent, err := h.reports.Absent(r.Context(), h.dateParam(r))
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeResponses(absent))
}

// Daily returns the combined report of ?date= (default today)
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	daily, err := h.reports.Daily(r.Context(), h.dateParam(r))
	if err != nil {
		respondReportError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DailyResponse{
		Date:              daily.Date,
		Present:           toRecordResponses(daily.Present),
		Incomplete:        toRecordResponses(daily.Incomplete),
		Absent:            toEmployeeResponses(daily.Absent),
		Enrolled:          daily.Enrolled,
		CompleteCheckouts: daily.CompleteCheckouts,
		AttendanceRate:    daily.AttendanceRate,
	})
}
