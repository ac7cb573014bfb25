package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

func TestBuildDSN(t *testing.T) {
	cfg := &database.Config{Database: "/tmp/players.db"}
	assert.Equal(t, "file:/tmp/players.db?_busy_timeout=5000&_journal_mode=WAL", buildDSN(cfg))
}

func TestOpen(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverSQLite, Database: filepath.Join(t.TempDir(), "players.db")}

	db, err := Dialect{}.Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, errs.ErrKindQueryFailed},
		{"syntax", sqlite3.Error{Code: sqlite3.ErrError}, errs.ErrKindQueryFailed},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, errs.ErrKindTimeout},
		{"cannot open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, errs.ErrKindConnectionFailed},
		{"other", errors.New("boom"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Dialect{}.MapError(tt.err, "statement failed")
			assert.Equal(t, tt.want, errs.KindOf(err))
		})
	}
	assert.NoError(t, Dialect{}.MapError(nil, "noop"))
}

func TestRequiresHost(t *testing.T) {
	assert.False(t, Dialect{}.RequiresHost())

	cfg := &database.Config{
		Driver:   database.DriverSQLite,
		Database: filepath.Join(t.TempDir(), "players.db"),
		MaxConns: 1,
	}
	assert.NoError(t, cfg.Validate())
}
