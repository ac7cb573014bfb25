// Package mysql registers the MySQL / TiDB dialect with the database package.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/playerdb/internal/database/mysql"
package mysql

import (
	"database/sql"

	"github.com/koustreak/playerdb/internal/database"
)

func init() {
	database.Register(database.DriverMySQL, Dialect{})
}

// Dialect implements database.Dialect on top of go-sql-driver/mysql.
type Dialect struct{}

// Open builds a connector from cfg. The pool is not pinged here.
func (Dialect) Open(cfg *database.Config) (*sql.DB, error) {
	connector, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// Rebind is the identity: MySQL uses ? placeholders natively.
func (Dialect) Rebind(query string) string {
	return query
}

// RequiresHost is true: TiDB and MySQL are dialed over TCP.
func (Dialect) RequiresHost() bool {
	return true
}

// MapError translates driver errors into *errs.Error.
func (Dialect) MapError(err error, msg string) error {
	if e := mapError(err, msg); e != nil {
		return e
	}
	return nil
}
