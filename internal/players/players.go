// Package players is the repository for the players table: schema setup,
// the demo seed and single-row CRUD, each a thin binding over
// database.Service.Execute.
package players

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

// seedCount is the number of rows Seed inserts.
const seedCount = 11

// Player is one row of the players table.
type Player struct {
	ID    int64 `json:"id"`
	Coins int64 `json:"coins"`
	Goods int64 `json:"goods"`
}

// Repository runs the fixed set of player statements on a Service.
// It holds no state of its own and is safe for concurrent use.
type Repository struct {
	db *database.Service
	q  queries
}

// New returns a Repository bound to db. It fails when db's driver has no
// player schema.
func New(db *database.Service) (*Repository, error) {
	q, err := queriesFor(db.Driver())
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, q: q}, nil
}

// CreateTable creates the players table if it does not exist.
func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.db.Execute(ctx, r.q.createTable)
	return err
}

// SeedPlayers returns the fixed demo rows: (i, i, 2^(11-i)) for i = 1..11.
func SeedPlayers() []Player {
	out := make([]Player, seedCount)
	for i := 1; i <= seedCount; i++ {
		out[i-1] = Player{ID: int64(i), Coins: int64(i), Goods: 1 << (seedCount - i)}
	}
	return out
}

// Seed inserts the demo rows with explicit ids in one statement. It is not
// idempotent: a second call fails on the duplicate primary key.
func (r *Repository) Seed(ctx context.Context) ([]Player, error) {
	seed := SeedPlayers()

	var sb strings.Builder
	sb.WriteString("INSERT INTO players (id, coins, goods) VALUES ")
	args := make([]any, 0, len(seed)*3)
	for i, p := range seed {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, p.ID, p.Coins, p.Goods)
	}

	if _, err := r.db.Execute(ctx, sb.String(), args...); err != nil {
		return nil, err
	}
	if r.q.afterSeed != "" {
		if _, err := r.db.Execute(ctx, r.q.afterSeed); err != nil {
			return nil, err
		}
	}
	return seed, nil
}

// ServerVersion reports the version string of the database server.
func (r *Repository) ServerVersion(ctx context.Context) (string, error) {
	res, err := r.db.Execute(ctx, r.q.version)
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", errs.New(errs.ErrKindQueryFailed, "version query returned no rows")
	}
	return fmt.Sprint(res.Rows[0]["server_version"]), nil
}

// Hello runs a constant SELECT, used as a connectivity probe.
func (r *Repository) Hello(ctx context.Context) (*database.Result, error) {
	return r.db.Execute(ctx, r.q.hello)
}

// Create inserts one player and returns the id the server assigned along
// with the row count the server reported.
func (r *Repository) Create(ctx context.Context, coins, goods int64) (id, affected int64, err error) {
	res, err := r.db.Execute(ctx, r.q.insert, coins, goods)
	if err != nil {
		return 0, 0, err
	}
	if !r.q.returning {
		return res.InsertID, res.AffectedRows, nil
	}
	// RETURNING goes through the query path: one row per inserted record.
	if len(res.Rows) == 0 {
		return 0, 0, errs.New(errs.ErrKindQueryFailed, "insert returned no id")
	}
	id, err = toInt64(res.Rows[0]["id"])
	if err != nil {
		return 0, 0, err
	}
	return id, int64(len(res.Rows)), nil
}

// ReadByID returns the player with id as a zero or one element slice.
// A missing player is not an error.
func (r *Repository) ReadByID(ctx context.Context, id int64) ([]Player, error) {
	res, err := r.db.Execute(ctx, selectByID, id)
	if err != nil {
		return nil, err
	}
	return toPlayers(res.Rows)
}

// Update adds incCoins and incGoods to the player's balances in a single
// statement and returns the affected row count, 0 when id does not exist.
func (r *Repository) Update(ctx context.Context, id, incCoins, incGoods int64) (int64, error) {
	res, err := r.db.Execute(ctx, updateByID, incCoins, incGoods, id)
	if err != nil {
		return 0, err
	}
	return res.AffectedRows, nil
}

// DeleteByID removes the player and returns the affected row count.
func (r *Repository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.Execute(ctx, deleteByID, id)
	if err != nil {
		return 0, err
	}
	return res.AffectedRows, nil
}

// List returns every player ordered by id.
func (r *Repository) List(ctx context.Context) ([]Player, error) {
	res, err := r.db.Execute(ctx, selectAll)
	if err != nil {
		return nil, err
	}
	return toPlayers(res.Rows)
}

func toPlayers(rows []map[string]any) ([]Player, error) {
	out := make([]Player, 0, len(rows))
	for _, row := range rows {
		var (
			p   Player
			err error
		)
		if p.ID, err = toInt64(row["id"]); err != nil {
			return nil, err
		}
		if p.Coins, err = toInt64(row["coins"]); err != nil {
			return nil, err
		}
		if p.Goods, err = toInt64(row["goods"]); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// toInt64 normalises the integer representations drivers hand back through
// database/sql. NULL counters read as 0.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("unexpected integer value %q", n), err)
		}
		return i, nil
	default:
		return 0, errs.New(errs.ErrKindQueryFailed, fmt.Sprintf("unexpected column type %T", v))
	}
}
