package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse(`create table if not exists Readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind VARCHAR(32) NOT NULL,
		value REAL,
		synced BOOLEAN
	);`)
	require.NoError(t, err)

	ct, ok := stmt.(createTable)
	require.True(t, ok)
	assert.True(t, ct.ifNotExists)
	assert.Equal(t, "readings", ct.schema.Name)
	require.Len(t, ct.schema.Columns, 4)
	assert.Equal(t, Column{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoIncrement: true}, ct.schema.Columns[0])
	assert.Equal(t, Column{Name: "kind", Type: TypeText, NotNull: true}, ct.schema.Columns[1])
	assert.Equal(t, TypeReal, ct.schema.Columns[2].Type)
	assert.Equal(t, TypeBoolean, ct.schema.Columns[3].Type)
}

func TestParse_Select(t *testing.T) {
	stmt, err := Parse(`SELECT id, value FROM readings WHERE kind = 'it''s' AND value >= -1.5 AND note IS NOT NULL ORDER BY value DESC LIMIT 10 OFFSET 2`)
	require.NoError(t, err)

	sel := stmt.(selectStmt)
	assert.Equal(t, []string{"id", "value"}, sel.columns)
	assert.Equal(t, "readings", sel.table)
	require.Len(t, sel.where, 3)
	assert.Equal(t, condition{column: "kind", op: "=", value: literal("it's")}, sel.where[0])
	assert.Equal(t, condition{column: "value", op: ">=", value: literal(-1.5)}, sel.where[1])
	assert.Equal(t, "IS NOT NULL", sel.where[2].op)
	assert.Equal(t, "value", sel.orderBy)
	assert.True(t, sel.desc)
	assert.Equal(t, 10, sel.limit)
	assert.Equal(t, 2, sel.offset)
}

func TestParse_Params(t *testing.T) {
	stmt, err := Parse(`UPDATE readings SET value = ?, note = NULL WHERE id <> ? AND kind LIKE ?`)
	require.NoError(t, err)

	up := stmt.(update)
	assert.Equal(t, 3, up.params())
	assert.Equal(t, 0, up.set[0].value.param)
	assert.Equal(t, -1, up.set[1].value.param)
	assert.Equal(t, "!=", up.where[0].op)
	assert.Equal(t, 1, up.where[0].value.param)
	assert.Equal(t, "LIKE", up.where[1].op)
	assert.Equal(t, 2, up.where[1].value.param)
}

func TestParse_CountAndKeywordColumns(t *testing.T) {
	stmt, err := Parse(`SELECT COUNT(*) FROM readings`)
	require.NoError(t, err)
	assert.True(t, stmt.(selectStmt).count)

	stmt, err = Parse(`SELECT count, "order" FROM stats`)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "order"}, stmt.(selectStmt).columns)
}

func TestParse_Insert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO readings (kind, value) VALUES ('glucose', 5.6), ('weight', 70), (?, TRUE)`)
	require.NoError(t, err)

	ins := stmt.(insert)
	assert.Equal(t, []string{"kind", "value"}, ins.columns)
	require.Len(t, ins.rows, 3)
	assert.Equal(t, literal(int64(70)), ins.rows[1][1])
	assert.Equal(t, literal(true), ins.rows[2][1])
	assert.Equal(t, 1, ins.params())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"empty", ""},
		{"unknown statement", "VACUUM"},
		{"unterminated string", "SELECT * FROM t WHERE a = 'abc"},
		{"missing from", "SELECT * t"},
		{"bad type", "CREATE TABLE t (a BLOB)"},
		{"duplicate column", "CREATE TABLE t (a INT, a TEXT)"},
		{"two primary keys", "CREATE TABLE t (a INT PRIMARY KEY, b INT PRIMARY KEY)"},
		{"autoincrement on text", "CREATE TABLE t (a TEXT PRIMARY KEY AUTOINCREMENT)"},
		{"trailing input", "DELETE FROM t WHERE a = 1 b"},
		{"or is unsupported", "SELECT * FROM t WHERE a = 1 OR b = 2"},
		{"negative limit", "SELECT * FROM t LIMIT -1"},
		{"bang", "SELECT * FROM t WHERE a ! 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			assert.Error(t, err)
		})
	}
}

func TestTokenize_Comments(t *testing.T) {
	toks, err := tokenize("SELECT 1 -- trailing comment\n, 2e3")
	require.NoError(t, err)
	var vals []string
	for _, tok := range toks {
		vals = append(vals, tok.val)
	}
	assert.Equal(t, []string{"SELECT", "1", ",", "2e3", ""}, vals)
}
