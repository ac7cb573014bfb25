// Package sqlite registers the SQLite dialect with the database package.
// It backs local development runs and the repository tests; production
// deployments use the mysql dialect against TiDB.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

func init() {
	database.Register(database.DriverSQLite, Dialect{})
}

// busyTimeoutMillis is how long a writer waits on a locked database file.
const busyTimeoutMillis = 5000

// Dialect implements database.Dialect on top of mattn/go-sqlite3.
// Config.Database is the path of the database file.
type Dialect struct{}

// Open opens the database file named by cfg.Database.
func (Dialect) Open(cfg *database.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid sqlite config", err)
	}
	return db, nil
}

// Rebind is the identity: SQLite accepts ? placeholders.
func (Dialect) Rebind(query string) string {
	return query
}

// RequiresHost is false; Config.Database names the file.
func (Dialect) RequiresHost() bool {
	return false
}

// MapError translates go-sqlite3 errors into *errs.Error.
func (Dialect) MapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if e := database.MapCommonError(err, msg); e != nil {
		return e
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		text := fmt.Sprintf("%s: %s", msg, sqliteErr.Error())
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errs.Wrap(errs.ErrKindTimeout, text, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrPerm, sqlite3.ErrNotADB:
			return errs.Wrap(errs.ErrKindConnectionFailed, text, err)
		default:
			return errs.Wrap(errs.ErrKindQueryFailed, text, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// buildDSN turns the database path into a go-sqlite3 URI. WAL mode plus a
// busy timeout lets several pooled connections write to one file.
func buildDSN(cfg *database.Config) string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(busyTimeoutMillis))
	params.Set("_journal_mode", "WAL")
	return "file:" + cfg.Database + "?" + params.Encode()
}
