package schema

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name         string  `json:"name"`
	DataType     string  `json:"dataType"` // engine type name: int, integer, INTEGER …
	IsNullable   bool    `json:"nullable"`
	IsPrimaryKey bool    `json:"primaryKey"`
	DefaultValue *string `json:"default,omitempty"` // nil if no default
}

// TableInfo describes a table and its columns in ordinal order.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}
