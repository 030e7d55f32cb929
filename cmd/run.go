package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database/redis"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/systemd"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a recognition session",
	Long: `Read frames from the camera, recognize enrolled employees and record their
check-in and check-out.

Frames come from an IP camera snapshot URL (CAMERA_SNAPSHOT_URL) or from a
directory of recorded frames (CAMERA_DIR). The session ends on Ctrl+C, when a
directory source runs out of frames, or after CAMERA_MAX_FAILURES consecutive
failed frames.

Examples:
  # Poll an IP camera
  face-attendance run --snapshot-url http://camera.local/snapshot.jpg

  # Replay recorded frames once
  face-attendance run --dir ./frames

  # Expose Prometheus metrics while running
  face-attendance run --metrics-addr :9101`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("snapshot-url", "", "Camera snapshot URL (overrides CAMERA_SNAPSHOT_URL)")
	runCmd.Flags().String("dir", "", "Directory of recorded frames (overrides CAMERA_DIR)")
	runCmd.Flags().Bool("loop", false, "Replay the frame directory forever")
	runCmd.Flags().String("metrics-addr", "", "Address to expose Prometheus metrics on (empty = disabled)")
	runCmd.Flags().Bool("quiet", false, "Only print attendance transitions")
}

// frameSource picks the camera snapshot endpoint or the frame directory.
func frameSource(cmd *cobra.Command, cfg *config.Config) (recognition.FrameSource, string, error) {
	snapshotURL := mustGetString(cmd, "snapshot-url")
	dir := mustGetString(cmd, "dir")
	if snapshotURL == "" && dir == "" {
		snapshotURL, dir = cfg.Camera.SnapshotURL, cfg.Camera.Dir
	}

	switch {
	case snapshotURL != "":
		return recognition.NewSnapshotSource(snapshotURL, cfg.Camera.Interval, cfg.Camera.Timeout), snapshotURL, nil
	case dir != "":
		src, err := recognition.NewDirectorySource(dir, mustGetBool(cmd, "loop"), cfg.Camera.Interval)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("%s (%d frames)", dir, src.Len()), nil
	default:
		return nil, "", errors.New("no camera configured: set CAMERA_SNAPSHOT_URL or CAMERA_DIR")
	}
}

// sourceGuard closes a frame source on early return, until the loop that
// closes it on its own has been started.
type sourceGuard struct {
	source     recognition.FrameSource
	handedOver bool
}

func (g *sourceGuard) handOver() { g.handedOver = true }

func (g *sourceGuard) release() {
	if !g.handedOver {
		_ = g.source.Close()
	}
}

// cooldownStore returns the Redis cooldown store when configured, nil for in-memory.
func (a *app) cooldownStore() (attendance.CooldownStore, error) {
	if a.cfg.Redis.Addr == "" {
		return nil, nil
	}
	store, err := redis.Open(a.cfg.Redis, a.cfg.Attendance.Cooldown)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info().Str("addr", a.cfg.Redis.Addr).Msg("Using Redis cooldown store")
	return store, nil
}

// statusPrinter prints one colored line per frame, or only transitions when quiet.
func statusPrinter(quiet bool) recognition.Observer {
	checkIn := color.New(color.FgGreen, color.Bold)
	checkOut := color.New(color.FgCyan, color.Bold)
	rejected := color.New(color.FgYellow)
	failed := color.New(color.FgRed)
	faint := color.New(color.Faint)

	return func(ev recognition.Event) {
		stamp := time.Now().Format(time.TimeOnly)
		switch {
		case ev.Err != nil:
			failed.Printf("%s  frame %d skipped: %v\n", stamp, ev.Frame, ev.Err)
		case ev.Stabilized && ev.Transition.Kind == attendance.KindCheckIn:
			checkIn.Printf("%s  IN   %s\n", stamp, ev.Transition)
		case ev.Stabilized && ev.Transition.Kind == attendance.KindCheckOut:
			checkOut.Printf("%s  OUT  %s\n", stamp, ev.Transition)
		case ev.Stabilized:
			rejected.Printf("%s  --   %s\n", stamp, ev.Transition)
		case !quiet:
			faint.Printf("%s  frame %d: %s (%d faces)\n", stamp, ev.Frame, ev.Guess.Label, ev.Guess.Faces)
		}
	}
}

// startWatchdog pings the systemd watchdog until ctx is done.
func startWatchdog(ctx context.Context, a *app) {
	interval := systemd.WatchdogInterval()
	if interval == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := systemd.NotifyWatchdog(); err != nil {
					a.logger.Debug().Err(err).Msg("Watchdog notification failed")
				}
			}
		}
	}()
}

func startMetrics(addr string, a *app) (*metrics.Server, error) {
	if addr == "" {
		return nil, nil
	}
	server := metrics.NewServer(addr, a.logger)
	ln, err := systemd.Listener("metrics")
	if err != nil {
		return nil, err
	}
	if ln != nil {
		server.SetListener(ln)
	}
	server.Start()
	return server, nil
}

func printStats(stats attendance.Stats) {
	fmt.Printf("\nSession finished: %d guesses, %d stabilized, %d check-ins, %d check-outs\n",
		stats.Guesses, stats.Stabilized, stats.CheckIns, stats.CheckOuts)
	for reason, n := range stats.Rejected {
		fmt.Printf("  rejected %-20s %d\n", reason, n)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	source, sourceDesc, err := frameSource(cmd, a.cfg)
	if err != nil {
		return err
	}
	guard := &sourceGuard{source: source}
	defer guard.release()

	dir, err := a.directory(ctx)
	if err != nil {
		return err
	}
	store, err := a.cooldownStore()
	if err != nil {
		return err
	}

	fmt.Println("Loading sample index...")
	index, rebuilt, err := recognition.LoadOrTrain(ctx, a.employees, a.cfg.Recognition.IndexPath, a.logger)
	if err != nil {
		return fmt.Errorf("loading sample index: %w", err)
	}
	if rebuilt {
		fmt.Printf("Sample index trained with %d samples\n", index.Count())
	} else {
		fmt.Printf("Sample index loaded with %d samples\n", index.Count())
	}

	opts, err := attendance.OptionsFromConfig(a.cfg.Attendance)
	if err != nil {
		return err
	}
	session := attendance.NewSession(a.ledger, dir, store, nil, opts, logging.Component(a.logger, "session"))
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer func() { printStats(session.Close()) }()

	client := recognition.NewEmbeddingClient(a.cfg.Embedding.URL, constants.EmbeddingTimeout)
	recognizer := recognition.NewRecognizer(client, index, recognition.OptionsFromConfig(a.cfg.Recognition))

	loop := recognition.NewLoop(guard.source, recognizer, session, a.cfg.Camera.MaxFailures, logging.Component(a.logger, "loop"))
	loop.SetObserver(statusPrinter(mustGetBool(cmd, "quiet")))

	metricsServer, err := startMetrics(mustGetString(cmd, "metrics-addr"), a)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() { _ = metricsServer.Stop() }()
	}

	if err := systemd.NotifyReady(); err != nil {
		a.logger.Debug().Err(err).Msg("systemd notification failed")
	}
	_ = systemd.NotifyStatus("recognizing frames from " + sourceDesc)
	startWatchdog(ctx, a)

	fmt.Printf("Recognizing frames from %s\n", sourceDesc)
	fmt.Println("Press Ctrl+C to stop")

	guard.handOver()
	runErr := loop.Run(ctx)
	_ = systemd.NotifyStopping()
	if runErr != nil {
		return fmt.Errorf("recognition session failed: %w", runErr)
	}
	return nil
}
