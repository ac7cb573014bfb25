package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

const pgInspectTable = `
	SELECT
		c.column_name::text                AS column_name,
		c.data_type::text                  AS data_type,
		c.is_nullable = 'YES'              AS is_nullable,
		c.column_default::text             AS column_default,
		COALESCE(pk.is_pk, false)          AS is_primary_key
	FROM information_schema.columns c

	LEFT JOIN (
		SELECT kcu.column_name, true AS is_pk
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = current_schema()
		  AND tc.table_name   = ?
	) pk ON pk.column_name = c.column_name

	WHERE c.table_schema = current_schema() AND c.table_name = ?
	ORDER BY c.ordinal_position`

const sqliteInspectTable = `
	SELECT
		name            AS column_name,
		type            AS data_type,
		"notnull" = 0   AS is_nullable,
		dflt_value      AS column_default,
		pk > 0          AS is_primary_key
	FROM pragma_table_info(?)
	ORDER BY cid`

// Introspector implements Reader on top of a database.Service.
type Introspector struct {
	db    *database.Service
	query string
	// args repeats the table name once per placeholder in query.
	args func(table string) []any
}

// New returns an Introspector for the service's engine.
func New(db *database.Service) (*Introspector, error) {
	one := func(t string) []any { return []any{t} }

	switch db.Driver() {
	case database.DriverMySQL:
		return &Introspector{db: db, query: mysqlInspectTable, args: one}, nil
	case database.DriverPostgres:
		return &Introspector{db: db, query: pgInspectTable, args: func(t string) []any { return []any{t, t} }}, nil
	case database.DriverSQLite:
		return &Introspector{db: db, query: sqliteInspectTable, args: one}, nil
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("schema: unsupported driver %q", db.Driver()))
	}
}

// TableExists reports whether table has at least one column.
func (in *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := in.InspectTable(ctx, table)
	if errs.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// InspectTable returns column details for a single table. A missing table
// is an ErrKindNotFound error.
func (in *Introspector) InspectTable(ctx context.Context, table string) (*TableInfo, error) {
	res, err := in.db.Execute(ctx, in.query, in.args(table)...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("table %s not found", table))
	}

	info := &TableInfo{Name: table, Columns: make([]ColumnInfo, 0, len(res.Rows))}
	for _, row := range res.Rows {
		col := ColumnInfo{
			Name:         fmt.Sprint(row["column_name"]),
			DataType:     fmt.Sprint(row["data_type"]),
			IsNullable:   toBool(row["is_nullable"]),
			IsPrimaryKey: toBool(row["is_primary_key"]),
		}
		if v := row["column_default"]; v != nil {
			s := fmt.Sprint(v)
			col.DefaultValue = &s
		}
		info.Columns = append(info.Columns, col)
	}
	return info, nil
}

// toBool reads the boolean expressions above: true bools on PostgreSQL,
// integers on SQLite, integers or their text form on MySQL.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case string:
		switch strings.ToLower(b) {
		case "1", "t", "true":
			return true
		}
	}
	return false
}

var _ Reader = (*Introspector)(nil)
