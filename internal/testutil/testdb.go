// Package testutil provisions throwaway Postgres schemas for store
// tests. Each test gets its own schema, so tests can run in parallel
// against one database. Tests skip when TEST_POSTGRES_DSN is unset.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"pitboss/internal/config"
	"pitboss/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OpenTestStore returns a store bound to a fresh schema with the full
// migration applied. The schema is dropped when the test finishes.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())

	execOnBase(t, dsn, "CREATE SCHEMA %s", schema)
	t.Cleanup(func() { execOnBase(t, dsn, "DROP SCHEMA %s CASCADE", schema) })

	st, err := store.New(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	ddl, err := os.ReadFile(findMigration(t))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.Pool.Exec(context.Background(), string(ddl)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return st
}

func execOnBase(t *testing.T, dsn, format, schema string) {
	t.Helper()
	if !schemaNamePattern.MatchString(schema) {
		t.Fatalf("schema %q does not match required pattern", schema)
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open base db: %v", err)
	}
	defer pool.Close()
	sql := fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize())
	if _, err := pool.Exec(context.Background(), sql); err != nil {
		t.Fatalf("%s: %v", strings.Fields(format)[0], err)
	}
}

func findMigration(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", "000001_init.up.sql")
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	t.Fatalf("000001_init.up.sql not found")
	return ""
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}
