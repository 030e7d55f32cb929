// Package mariadb reads employee names from an external HR database.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	dialTimeout = 5 * time.Second
	readTimeout = 5 * time.Second
)

// Pool is a small read-only connection pool to the HR database.
type Pool struct {
	db *sql.DB
}

// ParseDSN validates an HR database DSN and fills in dial and read
// timeouts when the DSN leaves them unset.
func ParseDSN(dsn string) (*mysql.Config, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse MariaDB DSN: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = dialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = readTimeout
	}
	return cfg, nil
}

// NewPool connects to the HR database and verifies it responds.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create MariaDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping MariaDB at %s: %w", cfg.Addr, err)
	}
	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
