package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSyntax_Valid(t *testing.T) {
	report := ValidateSyntax("SELECT id, name FROM customers WHERE active = 1")

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateSyntax_EmptyQuery(t *testing.T) {
	for _, query := range []string{"", "   ", "\n\t"} {
		report := ValidateSyntax(query)
		assert.False(t, report.Valid, "query %q", query)
		require.NotEmpty(t, report.Errors)
		assert.Contains(t, report.Errors[0], "Empty query")
	}
}

func TestValidateSyntax_TrailingSemicolonIsWarning(t *testing.T) {
	report := ValidateSyntax("SELECT id FROM customers;")

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Semicolon")
}

func TestValidateSyntax_MultipleStatements(t *testing.T) {
	report := ValidateSyntax("SELECT id FROM a; SELECT id FROM b")

	assert.False(t, report.Valid)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "multiple SQL statements")
}

func TestValidateSyntax_SemicolonInsideStringLiteral(t *testing.T) {
	report := ValidateSyntax("SELECT id FROM notes WHERE body = 'a; b'")

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
}

func TestValidateSyntax_MissingSelectAndFrom(t *testing.T) {
	report := ValidateSyntax("EXPLAIN ANALYZE something")

	assert.False(t, report.Valid)
	assert.Contains(t, report.Errors, "Missing required SELECT and FROM clauses")
}

func TestValidateSyntax_UnbalancedParentheses(t *testing.T) {
	report := ValidateSyntax("SELECT COUNT(id FROM customers")

	assert.False(t, report.Valid)
	assert.Contains(t, report.Errors, "Unbalanced parentheses")
}

func TestValidateSyntax_ModifyingCTE(t *testing.T) {
	report := ValidateSyntax("WITH purged AS (DELETE FROM logs) SELECT * FROM purged")

	assert.False(t, report.Valid)
	require.NotEmpty(t, report.Errors)
}

func TestValidateSyntax_RejectsNonSelect(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"DELETE FROM users WHERE id = 1", "DELETE statements are not accepted; submit a single SELECT"},
		{"UPDATE users SET name = 'x' WHERE id = 1", "UPDATE statements are not accepted; submit a single SELECT"},
		{"INSERT INTO users SELECT * FROM staging", "INSERT statements are not accepted; submit a single SELECT"},
	}

	for _, tt := range tests {
		report := ValidateSyntax(tt.query)
		assert.False(t, report.Valid, "query %q", tt.query)
		assert.Contains(t, report.Errors, tt.want, "query %q", tt.query)
	}
}

func TestValidateSyntax_CTESelectIsAccepted(t *testing.T) {
	report := ValidateSyntax("WITH recent AS (SELECT * FROM orders WHERE order_date > '2024-01-01') SELECT COUNT(*) FROM recent")

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no semicolon", "SELECT 1", "SELECT 1"},
		{"trailing semicolon", "SELECT id FROM users;", "SELECT id FROM users"},
		{"whitespace around semicolon", "  SELECT 1 ; \n", "SELECT 1"},
		{"semicolon inside literal", "SELECT * FROM notes WHERE body = 'a;b'", "SELECT * FROM notes WHERE body = 'a;b'"},
		{"semicolon inside quoted identifier", `SELECT * FROM "odd;name"`, `SELECT * FROM "odd;name"`},
		{"doubled quote escape", "SELECT * FROM users WHERE name = 'O''Brien'", "SELECT * FROM users WHERE name = 'O''Brien'"},
		{"empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_MultipleStatements(t *testing.T) {
	tests := []string{
		"SELECT 1; SELECT 2",
		"SELECT 1;SELECT 2;",
		"SELECT * FROM users WHERE 1=1; DROP TABLE users",
		"SELECT 'a;b'; SELECT 1",
	}

	for _, query := range tests {
		_, err := Normalize(query)
		assert.ErrorIs(t, err, ErrMultipleStatements, "query %q", query)
	}
}

func TestHasSemicolonOutsideStrings(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"SELECT 1", false},
		{"SELECT 1; SELECT 2", true},
		{"SELECT 'a;b'", false},
		{`SELECT "a;b"`, false},
		{"SELECT 'it''s;here'", false},
		{`SELECT 'test\';more'`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hasSemicolonOutsideStrings(tt.input), "input %q", tt.input)
	}
}

func TestStripTrailingSemicolon(t *testing.T) {
	assert.Equal(t, "SELECT 1", stripTrailingSemicolon("SELECT 1 ;\t\n"))
	// Only one semicolon comes off; a second signals multiple statements.
	assert.Equal(t, "SELECT 1;", stripTrailingSemicolon("SELECT 1;;"))
}

func TestDetectStatementType(t *testing.T) {
	tests := []struct {
		query string
		want  StatementType
	}{
		{"SELECT * FROM customers", StmtSelect},
		{"  select id from t", StmtSelect},
		{"WITH cte AS (SELECT 1) SELECT * FROM cte", StmtSelect},
		{"WITH purged AS (DELETE FROM logs) SELECT * FROM purged", StmtUnknown},
		{"INSERT INTO t VALUES (1)", StmtInsert},
		{"UPDATE t SET a = 1", StmtUpdate},
		{"DELETE FROM t", StmtDelete},
		{"DROP TABLE t", StmtDDL},
		{"CREATE TABLE t (id INT)", StmtDDL},
		{"TRUNCATE TABLE t", StmtDDL},
		{"GRANT ALL ON t TO x", StmtUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectStatementType(tt.query), "query %q", tt.query)
	}
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly(StmtSelect))
	assert.False(t, IsReadOnly(StmtInsert))
	assert.False(t, IsReadOnly(StmtDDL))
	assert.False(t, IsReadOnly(StmtUnknown))
}
