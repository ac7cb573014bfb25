package schema_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/database"
	_ "github.com/koustreak/playerdb/internal/database/sqlite"
	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/players"
	"github.com/koustreak/playerdb/internal/schema"
)

func newService(t *testing.T) *database.Service {
	t.Helper()
	cfg := &database.Config{
		Driver:             database.DriverSQLite,
		Database:           filepath.Join(t.TempDir(), "schema.db"),
		MaxConns:           1,
		MaxIdleConns:       1,
		WaitForConnections: true,
		ConnectTimeout:     5 * time.Second,
	}
	pool, err := database.Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	svc := database.NewService(pool, logger.Nop())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestInspectTable_Players(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	repo, err := players.New(svc)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))

	in, err := schema.New(svc)
	require.NoError(t, err)

	info, err := in.InspectTable(ctx, players.TableName)
	require.NoError(t, err)
	assert.Equal(t, "players", info.Name)
	require.Len(t, info.Columns, 3)

	id := info.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "INTEGER", id.DataType)
	assert.True(t, id.IsPrimaryKey)

	coins := info.Columns[1]
	assert.Equal(t, "coins", coins.Name)
	assert.True(t, coins.IsNullable)
	assert.False(t, coins.IsPrimaryKey)
	assert.Nil(t, coins.DefaultValue)
	assert.Equal(t, "goods", info.Columns[2].Name)

	ok, err := in.TableExists(ctx, players.TableName)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInspectTable_Defaults(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Execute(ctx, `CREATE TABLE settings (name TEXT NOT NULL PRIMARY KEY, val INTEGER DEFAULT 7)`)
	require.NoError(t, err)

	in, err := schema.New(svc)
	require.NoError(t, err)

	info, err := in.InspectTable(ctx, "settings")
	require.NoError(t, err)
	require.Len(t, info.Columns, 2)
	assert.False(t, info.Columns[0].IsNullable)
	require.NotNil(t, info.Columns[1].DefaultValue)
	assert.Equal(t, "7", *info.Columns[1].DefaultValue)
}

func TestInspectTable_Missing(t *testing.T) {
	svc := newService(t)
	in, err := schema.New(svc)
	require.NoError(t, err)

	_, err = in.InspectTable(context.Background(), "nope")
	assert.True(t, errs.IsNotFound(err))

	ok, err := in.TableExists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
