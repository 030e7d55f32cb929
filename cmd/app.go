package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/directory"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// app holds what every command needs: validated configuration, a logger and
// the PostgreSQL repositories.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	pool      *postgres.Pool
	ledger    *postgres.AttendanceRepository
	employees *postgres.EmployeeRepository
	closers   []func() error
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logging.New(cfg.Logging, os.Stderr), nil
}

// openApp loads configuration and connects to PostgreSQL, applying pending migrations.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	pool, applied, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	for _, name := range applied {
		logger.Info().Str("migration", name).Msg("Applied database migration")
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		ledger:    postgres.NewAttendanceRepository(pool),
		employees: postgres.NewEmployeeRepository(pool),
		closers:   []func() error{pool.Close},
	}, nil
}

// Close releases every connection opened for the app, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close connection")
		}
	}
}

// directory builds the employee directory: the HR database first when
// configured, then the enrolled employees, behind an LRU cache.
func (a *app) directory(ctx context.Context) (*directory.Cached, error) {
	var chain directory.Chain

	if a.cfg.Directory.HRDatabaseURL != "" {
		hrPool, err := mariadb.NewPool(ctx, a.cfg.Directory.HRDatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to HR database: %w", err)
		}
		a.closers = append(a.closers, hrPool.Close)

		query, err := mariadb.NewEmployeeQuery(hrPool, a.cfg.Directory.Query)
		if err != nil {
			return nil, err
		}
		chain = append(chain, directory.NewHR(query, logging.Component(a.logger, "directory")))
		a.logger.Info().Msg("Using HR database for employee names")
	}
	chain = append(chain, directory.NewEnrolled(a.employees))

	return directory.NewCached(chain, a.cfg.Directory.CacheSize)
}
