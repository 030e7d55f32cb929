package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Reports, s.logger)
	employeesHandler := handlers.NewEmployeesHandler(s.deps.Employees, s.deps.Reports, s.logger)
	reportsHandler := handlers.NewReportsHandler(s.deps.Reports, s.logger)

	// Health check and metrics (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Get("/api/v1/ready", handlers.ReadinessCheck(s.deps.Ledger, s.logger))
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.Web.APIToken))

			// Attendance ledger
			r.Get("/attendance", attendanceHandler.ByDate)
			r.Get("/attendance/range", attendanceHandler.Range)

			// Employees
			r.Get("/employees", employeesHandler.List)
			r.Get("/employees/{id}/attendance", employeesHandler.Attendance)

			// Reports
			r.Get("/reports/summary", reportsHandler.Summary)
			r.Get("/reports/incomplete", reportsHandler.Incomplete)
			r.Get("/reports/absent", reportsHandler.Absent)
			r.Get("/reports/daily", reportsHandler.Daily)
		})
	})
}
