package schema

// MySQL and TiDB report the current database through DATABASE(). Every
// column is aliased so the labels are lower case on MySQL 8 too.
const mysqlInspectTable = `
	SELECT
		c.column_name                AS column_name,
		c.data_type                  AS data_type,
		c.is_nullable = 'YES'        AS is_nullable,
		c.column_default             AS column_default,
		(c.column_key = 'PRI')       AS is_primary_key
	FROM information_schema.columns c
	WHERE c.table_schema = DATABASE()
	  AND c.table_name   = ?
	ORDER BY c.ordinal_position`
