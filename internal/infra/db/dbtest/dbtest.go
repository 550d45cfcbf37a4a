// Package dbtest gives repository tests a migrated, empty database. Tests are skipped
// unless TEST_DATABASE_DSN is set.
//
// Each test package works in its own schema named after the package directory, so
// `go test ./...` may run several packages against the same database at once.
package dbtest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/school-supply/internal/infra/db"
)

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}

func schemaName(pkgDir string) string {
	var b strings.Builder
	b.WriteString("test_")
	for _, r := range strings.ToLower(filepath.Base(pkgDir)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// withSearchPath adds search_path to a URL or key=value DSN. Both pgx and lib/pq send
// it to the server as a run-time parameter.
func withSearchPath(dsn, schema string) (string, error) {
	if !strings.Contains(dsn, "://") {
		return strings.TrimSpace(dsn) + " search_path=" + schema, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open recreates the calling package's schema, migrates it and returns a pool bound
// to it. The pool is closed at test cleanup.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	_, caller, _, _ := runtime.Caller(1)
	schema := schemaName(filepath.Dir(caller))
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	ident := pgx.Identifier{schema}.Sanitize()
	_, err = conn.Exec(ctx, `DROP SCHEMA IF EXISTS `+ident+` CASCADE`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `CREATE SCHEMA `+ident)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	scoped, err := withSearchPath(dsn, schema)
	require.NoError(t, err)

	goose.SetLogger(goose.NopLogger())
	require.NoError(t, db.Migrate(scoped, migrationsDir()))

	pool, err := pgxpool.New(ctx, scoped)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
