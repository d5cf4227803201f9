// Package postgres persists the commit journal in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/config"
)

// ApplicationName is reported to the server for every journal connection.
const ApplicationName = "rogue-journal"

// connectRetry is the pause between pings while waiting for the database.
const connectRetry = 250 * time.Millisecond

// Pool is the journal's connection pool.
type Pool struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a pool and pings until the database answers. With a positive
// cfg.ConnectTimeout failed pings are retried until the timeout elapses;
// otherwise the first failure is returned.
//
// Precondition: cfg passes config validation for the postgres journal; logger is non-nil.
// Postcondition: Returns a pool that has answered a ping, or a non-nil error
// with no connections left open.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		panic("postgres.Connect: logger must not be nil")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{db: db, logger: logger}
	if err := p.await(ctx, cfg.ConnectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pool) await(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		if err := p.db.Ping(ctx); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for attempt := 1; ; attempt++ {
		err := p.db.Ping(ctx)
		if err == nil {
			return nil
		}
		p.logger.Debug("database not ready", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("database unreachable after %d attempts: %w", attempt, errors.Join(err, ctx.Err()))
		case <-time.After(connectRetry):
		}
	}
}

// Health pings the database within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.db.Ping(ctx)
}

// Close logs final pool statistics and releases every connection.
func (p *Pool) Close() {
	st := p.db.Stat()
	p.logger.Info("journal pool closed",
		zap.Int64("acquires", st.AcquireCount()),
		zap.Duration("acquire_wait", st.AcquireDuration()),
		zap.Int32("max_conns", st.MaxConns()),
	)
	p.db.Close()
}

// DB returns the underlying pgx pool for the journal repository.
func (p *Pool) DB() *pgxpool.Pool {
	return p.db
}
