package database

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/koustreak/playerdb/internal/errs"
)

// Dialect is the driver-specific half of the data layer. Each engine package
// (mysql, postgres, sqlite) registers one from its init function, so callers
// enable an engine with a blank import:
//
//	import _ "github.com/koustreak/playerdb/internal/database/mysql"
type Dialect interface {
	// Open returns an unpinged *sql.DB for cfg. Pool sizing is applied by
	// the caller.
	Open(cfg *Config) (*sql.DB, error)

	// Rebind rewrites ?-style placeholders into the engine's syntax.
	Rebind(query string) string

	// MapError translates a native driver error into *errs.Error.
	MapError(err error, msg string) error

	// RequiresHost reports whether the engine dials a server. File-backed
	// engines return false and Config.Validate accepts an empty Host.
	RequiresHost() bool
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[Driver]Dialect)
)

// Register makes a dialect available under the given driver name.
func Register(name Driver, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// lookupDialect retrieves a registered dialect by driver name.
func lookupDialect(name Driver) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown database driver %q (missing import?)", name))
	}
	return d, nil
}

// requiresHost asks the registered dialect. Names that are not registered
// (config validated before the engine packages are linked in) fall back to
// the built-in drivers, of which only SQLite is file-backed.
func requiresHost(name Driver) bool {
	if d, err := lookupDialect(name); err == nil {
		return d.RequiresHost()
	}
	return name != DriverSQLite
}
