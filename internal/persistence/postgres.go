package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// ConnectionSupervisor owns reconnect state for bootstrap: attempt count,
// max attempts and backoff schedule live here rather than in package-level
// variables.
type ConnectionSupervisor struct {
	maxAttempts int
	backoff     time.Duration
	attempts    int
	logger      *zap.Logger
}

// NewConnectionSupervisor builds a supervisor from config.
func NewConnectionSupervisor(cfg config.PostgresConfig, logger *zap.Logger) *ConnectionSupervisor {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &ConnectionSupervisor{maxAttempts: attempts, backoff: backoff, logger: logger}
}

// Connect dials Postgres, retrying with linear backoff up to the configured
// attempt limit. Each failed attempt is logged with the attempt counter.
func (s *ConnectionSupervisor) Connect(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		s.logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	var lastErr error
	for s.attempts = 1; s.attempts <= s.maxAttempts; s.attempts++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				s.logger.Info("connected to postgres", zap.Int("attempt", s.attempts))
				return &Postgres{Pool: pool}, nil
			}
			pool.Close()
		}
		lastErr = err
		s.logger.Warn("postgres connection failed",
			zap.Int("attempt", s.attempts),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Error(err))
		if s.attempts < s.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff * time.Duration(s.attempts)):
			}
		}
	}
	return nil, lastErr
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
