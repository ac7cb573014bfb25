package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
)

// testDriver is a file-backed SQLite dialect registered only for these
// tests; the real one lives in the sqlite subpackage, which imports this
// package and so cannot be imported back.
const testDriver Driver = "sqlite-test"

type testDialect struct{}

func (testDialect) Open(cfg *Config) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+cfg.Database+"?_busy_timeout=5000&_journal_mode=WAL")
}

func (testDialect) Rebind(query string) string { return query }

func (testDialect) RequiresHost() bool { return false }

func (testDialect) MapError(err error, msg string) error {
	if e := MapCommonError(err, msg); e != nil {
		return e
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func init() {
	Register(testDriver, testDialect{})
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Driver:             testDriver,
		Database:           filepath.Join(t.TempDir(), "test.db"),
		MaxConns:           2,
		MaxIdleConns:       2,
		IdleTimeout:        time.Minute,
		WaitForConnections: true,
		ConnectTimeout:     5 * time.Second,
	}
}

func openTestPool(t *testing.T, cfg *Config) *Pool {
	t.Helper()
	p, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func openTestService(t *testing.T, cfg *Config) *Service {
	t.Helper()
	return NewService(openTestPool(t, cfg), logger.Nop())
}
