package database

import "database/sql"

// Column describes one column of a result set.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"` // engine type name, e.g. INT, VARCHAR
}

// Result is what a statement produced: rows and their columns for queries,
// affected count and server-assigned id for mutations.
type Result struct {
	Rows         []map[string]any `json:"rows,omitempty"`
	Columns      []Column         `json:"columns,omitempty"`
	AffectedRows int64            `json:"affectedRows"`
	InsertID     int64            `json:"insertId"`
}

// scanRows reads the whole result set into a slice of maps keyed by column
// name. Byte slices are converted to strings so results encode to JSON as
// text rather than base64.
//
// The returned Rows slice is always non-nil (empty slice on zero rows).
// scanRows always closes rows.
func scanRows(rows *sql.Rows, mapErr func(error, string) error) (*Result, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, mapErr(err, "failed to read column metadata")
	}

	res := &Result{
		Rows:    make([]map[string]any, 0),
		Columns: make([]Column, len(types)),
	}
	for i, ct := range types {
		res.Columns[i] = Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(types))
		destPtrs := make([]any, len(types))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, mapErr(err, "failed to scan row")
		}

		row := make(map[string]any, len(types))
		for i, col := range res.Columns {
			if b, ok := dest[i].([]byte); ok {
				row[col.Name] = string(b)
				continue
			}
			row[col.Name] = dest[i]
		}
		res.Rows = append(res.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "error during row iteration")
	}

	return res, nil
}
