// Package postgres registers the PostgreSQL dialect with the database
// package, using pgx through its database/sql adapter.
package postgres

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/koustreak/playerdb/internal/database"
)

func init() {
	database.Register(database.DriverPostgres, Dialect{})
}

// Dialect implements database.Dialect on top of pgx.
type Dialect struct{}

// Open builds a *sql.DB backed by pgx. The pool is not pinged here.
func (Dialect) Open(cfg *database.Config) (*sql.DB, error) {
	connCfg, err := buildConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*connCfg), nil
}

// Rebind rewrites ? placeholders into $1, $2, … skipping quoted text.
func (Dialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// RequiresHost is true: PostgreSQL is dialed over TCP.
func (Dialect) RequiresHost() bool {
	return true
}

// MapError translates pgx errors into *errs.Error.
func (Dialect) MapError(err error, msg string) error {
	if e := mapError(err, msg); e != nil {
		return e
	}
	return nil
}
