// Package util provides test helpers for spinning up a real Postgres
// instance for pkg/store and pkg/api integration tests. Grounded on the
// teacher's test/util/database.go shared-testcontainer pattern, adapted to
// this repo's golang-migrate-based database.Open instead of ent's schema
// generation.
package util

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nyxlabs/recall/pkg/config"
	"github.com/nyxlabs/recall/pkg/database"
)

var (
	sharedCfg     config.Database
	containerOnce sync.Once
	containerErr  error
)

// SetupTestDatabase starts (or reuses) a shared Postgres container, opens a
// pooled connection against it with pending migrations applied, and
// registers a cleanup that truncates every table so each test starts clean.
func SetupTestDatabase(t *testing.T) *stdsql.DB {
	t.Helper()
	ctx := context.Background()

	cfg := getOrCreateSharedDatabase(t)
	db, err := database.Open(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		truncateAll(t, db)
		_ = db.Close()
	})
	return db
}

func truncateAll(t *testing.T, db *stdsql.DB) {
	t.Helper()
	const tables = "memory_tags, memories, fts_meta, tasks, reminders, events, llm_jobs, user_settings, audit_records, backup_jobs"
	_, err := db.ExecContext(context.Background(), fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", tables))
	if err != nil {
		t.Logf("warning: truncating test tables failed: %v", err)
	}
}

// getOrCreateSharedDatabase returns connection settings for the shared test
// database. In CI, it uses CI_DATABASE_* env vars for an external Postgres.
// Locally, it starts a single shared testcontainer for the whole package run.
func getOrCreateSharedDatabase(t *testing.T) config.Database {
	t.Helper()
	if host := os.Getenv("CI_DATABASE_HOST"); host != "" {
		t.Log("using external PostgreSQL from CI_DATABASE_* env vars")
		return config.Database{
			Host: host, Port: 5432, User: "test", Password: "test", Name: "test",
			SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour,
		}
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		t.Log("starting shared PostgreSQL testcontainer for this package's tests")

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
		if err != nil {
			containerErr = fmt.Errorf("starting postgres container: %w", err)
			return
		}

		host, err := pgContainer.Host(ctx)
		if err != nil {
			containerErr = fmt.Errorf("reading container host: %w", err)
			return
		}
		port, err := pgContainer.MappedPort(ctx, "5432/tcp")
		if err != nil {
			containerErr = fmt.Errorf("reading mapped port: %w", err)
			return
		}

		sharedCfg = config.Database{
			Host: host, Port: port.Int(), User: "test", Password: "test", Name: "test",
			SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour,
		}
	})

	require.NoError(t, containerErr, "failed to set up shared test container")
	return sharedCfg
}
