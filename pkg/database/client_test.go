package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nyxlabs/recall/pkg/config"
)

// newTestDatabaseCfg starts its own container inline, avoiding an import
// cycle with test/util (which itself calls Open).
func newTestDatabaseCfg(t *testing.T) config.Database {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.Database{
		Host: host, Port: port.Int(), User: "test", Password: "test", Name: "test",
		SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour,
	}
}

func TestOpenAppliesMigrationsAndPings(t *testing.T) {
	cfg := newTestDatabaseCfg(t)
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(context.Background()))

	var exists bool
	err = db.QueryRowContext(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'memories')`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "migrations must have created the memories table")
}

func TestOpenFailsOnUnreachableHost(t *testing.T) {
	cfg := config.Database{
		Host: "127.0.0.1", Port: 1, User: "test", Password: "test", Name: "test",
		SSLMode: "disable", MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Minute,
	}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
}
