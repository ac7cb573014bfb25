package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT VERSION() AS tidb_version;", true},
		{"  select id, coins, goods from players where id = ?", true},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"SHOW TABLES", true},
		{"-- comment\nSELECT 1", true},
		{"/* hint */ SELECT 1", true},
		{"INSERT INTO players (coins, goods) VALUES (?, ?) RETURNING id", true},
		{"INSERT INTO players (coins, goods) VALUES (?, ?)", false},
		{"INSERT INTO notes (body) VALUES ('returning customers')", false},
		{"INSERT INTO notes (body) VALUES ('it''s returning')", false},
		{`UPDATE "returning" SET n = n + 1`, false},
		{"UPDATE notes SET body = 'x' WHERE id = ? RETURNING id", true},
		{"UPDATE players SET coins = coins + ? WHERE id = ?", false},
		{"DELETE FROM players WHERE id = ?", false},
		{"CREATE TABLE IF NOT EXISTS players (id INT)", false},
		{"", false},
		{"/* unterminated", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, returnsRows(tt.query), tt.query)
	}
}

func TestUnquoted(t *testing.T) {
	assert.Equal(t, "SELECT 1", unquoted("SELECT 1"))
	assert.Equal(t, "VALUES ('    ') RETURNING id", unquoted("VALUES ('abcd') RETURNING id"))
	assert.Equal(t, "SET `   ` = \"  \"", unquoted("SET `abc` = \"de\""))
}
