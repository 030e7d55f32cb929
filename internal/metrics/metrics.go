package metrics

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Recognition loop metrics
	FramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_frames_total",
			Help: "Total frames read from the frame source",
		},
	)

	CameraReadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_camera_read_failures_total",
			Help: "Frames skipped because the camera could not be read",
		},
	)

	GuessesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_guesses_total",
			Help: "Per-frame identity guesses by kind",
		},
		[]string{"kind"}, // known, unknown, no_face
	)

	RecognitionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attendance_recognition_duration_seconds",
			Help:    "Time spent embedding and matching one frame",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// Core metrics
	StabilizationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_stabilizations_total",
			Help: "Identities that reached the debounce threshold",
		},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_transitions_total",
			Help: "Attendance transitions by kind",
		},
		[]string{"kind"},
	)

	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_rejections_total",
			Help: "Rejected attendance events by reason",
		},
		[]string{"reason"},
	)

	LedgerWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attendance_ledger_write_duration_seconds",
			Help:    "Ledger upsert duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// Directory metrics
	DirectoryCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_directory_cache_hits_total",
			Help: "Employee directory cache hits",
		},
	)

	DirectoryCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_directory_cache_misses_total",
			Help: "Employee directory cache misses",
		},
	)

	EnrolledEmployees = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "attendance_enrolled_employees",
			Help: "Number of employees in the loaded sample index",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		FramesTotal,
		CameraReadFailures,
		GuessesTotal,
		RecognitionDuration,
		StabilizationsTotal,
		TransitionsTotal,
		RejectionsTotal,
		LedgerWriteDuration,
		DirectoryCacheHits,
		DirectoryCacheMisses,
		EnrolledEmployees,
	)
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server is the metrics HTTP server used by the recognition session
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server in the background
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
