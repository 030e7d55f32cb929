// Package redis keeps the attendance cooldown in Redis so that it survives
// restarts of the recognition session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kozaktomas/face-attendance/internal/config"
)

const keyPrefix = "attendance:cooldown:"

// ttlMargin keeps an entry slightly past the cooldown window it arms.
const ttlMargin = time.Minute

// entryTTL is how long a check-out is remembered for a cooldown window;
// an expired entry could no longer block.
func entryTTL(window time.Duration) time.Duration {
	return max(window, 0) + ttlMargin
}

// CooldownStore implements attendance.CooldownStore using Redis
type CooldownStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Open creates a new Redis-backed cooldown store for the given cooldown window
func Open(cfg config.RedisConfig, window time.Duration) (*CooldownStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &CooldownStore{client: client, ttl: entryTTL(window)}, nil
}

// Close closes the Redis connection
func (s *CooldownStore) Close() error {
	return s.client.Close()
}

// LastCheckOut returns the stored check-out time of an employee
func (s *CooldownStore) LastCheckOut(ctx context.Context, employeeID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+employeeID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown of %s: %w", employeeID, err)
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown of %s: %w", employeeID, err)
	}
	return at, true, nil
}

// SetLastCheckOut stores the check-out time of an employee
func (s *CooldownStore) SetLastCheckOut(ctx context.Context, employeeID string, at time.Time) error {
	if err := s.client.Set(ctx, keyPrefix+employeeID, at.Format(time.RFC3339Nano), s.ttl).Err(); err != nil {
		return fmt.Errorf("set cooldown of %s: %w", employeeID, err)
	}
	return nil
}

// Clear forgets the check-out time of an employee
func (s *CooldownStore) Clear(ctx context.Context, employeeID string) error {
	if err := s.client.Del(ctx, keyPrefix+employeeID).Err(); err != nil {
		return fmt.Errorf("clear cooldown of %s: %w", employeeID, err)
	}
	return nil
}
