// Package testutil starts throwaway PostgreSQL servers for journal tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/rogue/internal/config"
	"github.com/cory-johannsen/rogue/internal/storage/postgres"
	"github.com/cory-johannsen/rogue/migrations"
)

const (
	image        = "postgres:16-alpine"
	credential   = "journal"
	readyMessage = "database system is ready to accept connections"
)

// PostgresContainer is a running server with a connected journal pool.
type PostgresContainer struct {
	Pool   *postgres.Pool
	Config config.DatabaseConfig
}

// NewPostgresContainer starts a server, connects to it, and terminates it
// when the test ends. Under -short the test is skipped.
//
// Precondition: Docker is reachable.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container needs docker; skipped in -short mode")
	}
	ctx := context.Background()
	start := time.Now()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     credential,
				"POSTGRES_PASSWORD": credential,
				"POSTGRES_DB":       credential,
			},
			// The entrypoint restarts the server once after init, so the
			// message appears twice before it accepts connections.
			WaitingFor: wait.ForLog(readyMessage).WithOccurrence(2).WithStartupTimeout(45 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", image, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            credential,
		Password:        credential,
		Name:            credential,
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
	pool, err := postgres.Connect(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("connecting to %s:%d: %v", host, port.Int(), err)
	}
	t.Cleanup(pool.Close)

	t.Logf("%s ready at %s:%d [%s]", image, host, port.Int(), time.Since(start))
	return &PostgresContainer{Pool: pool, Config: cfg}
}

// Migrate brings the schema to the latest embedded version through the
// same migrator the migrate command uses.
func (pc *PostgresContainer) Migrate(t *testing.T) uint {
	t.Helper()
	version, err := migrations.Up(pc.Config.DSN())
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return version
}
