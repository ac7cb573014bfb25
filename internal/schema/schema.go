// Package schema reads table metadata back from the connected engine, so a
// deployment can confirm the DDL it ran produced the expected columns.
package schema

import "context"

// Reader is the interface for introspecting a table.
type Reader interface {
	// TableExists checks whether a table exists in the current database.
	TableExists(ctx context.Context, table string) (bool, error)

	// InspectTable returns the column details of a table.
	InspectTable(ctx context.Context, table string) (*TableInfo, error)
}
