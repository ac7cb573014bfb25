package players

import (
	"fmt"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

// queries holds the statements whose text differs between engines.
// Everything else is shared and written with ? placeholders.
type queries struct {
	createTable string
	version     string
	insert      string // RETURNING id where the engine has no LastInsertId
	returning   bool
	afterSeed   string // optional statement run after Seed
	hello       string
}

// TableName is the table every statement in this package targets.
const TableName = "players"

const (
	mysqlCreateTable = `CREATE TABLE IF NOT EXISTS players (
    id INT(11) NOT NULL AUTO_INCREMENT COMMENT 'The unique ID of the player.',
    coins INT(11) COMMENT 'The number of coins that the player had.',
    goods INT(11) COMMENT 'The number of goods that the player had.',
    PRIMARY KEY (id)
)`

	postgresCreateTable = `CREATE TABLE IF NOT EXISTS players (
    id SERIAL PRIMARY KEY,
    coins INTEGER,
    goods INTEGER
)`

	sqliteCreateTable = `CREATE TABLE IF NOT EXISTS players (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    coins INTEGER,
    goods INTEGER
)`

	insertPlayer = `INSERT INTO players (coins, goods) VALUES (?, ?)`
	selectByID   = `SELECT id, coins, goods FROM players WHERE id = ?`
	selectAll    = `SELECT id, coins, goods FROM players ORDER BY id`
	updateByID   = `UPDATE players SET coins = coins + ?, goods = goods + ? WHERE id = ?`
	deleteByID   = `DELETE FROM players WHERE id = ?`
)

// HelloColumn keys the single value Hello returns. The column is named
// after its own text; only the identifier quoting differs per engine.
const HelloColumn = "Hello World"

const (
	mysqlHello = "SELECT 'Hello World' AS `Hello World`"
	ansiHello  = `SELECT 'Hello World' AS "Hello World"`
)

func queriesFor(d database.Driver) (queries, error) {
	switch d {
	case database.DriverMySQL:
		return queries{
			createTable: mysqlCreateTable,
			version:     `SELECT VERSION() AS server_version`,
			insert:      insertPlayer,
			hello:       mysqlHello,
		}, nil
	case database.DriverPostgres:
		return queries{
			createTable: postgresCreateTable,
			version:     `SELECT version() AS server_version`,
			insert:      insertPlayer + ` RETURNING id`,
			returning:   true,
			hello:       ansiHello,
			afterSeed:   `SELECT setval(pg_get_serial_sequence('players', 'id'), (SELECT MAX(id) FROM players))`,
		}, nil
	case database.DriverSQLite:
		return queries{
			createTable: sqliteCreateTable,
			version:     `SELECT sqlite_version() AS server_version`,
			insert:      insertPlayer,
			hello:       ansiHello,
		}, nil
	default:
		return queries{}, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("players: unsupported driver %q", d))
	}
}
