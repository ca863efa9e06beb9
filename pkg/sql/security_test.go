package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSecurity_CleanSelect(t *testing.T) {
	report := ValidateSecurity("SELECT id, name FROM customers WHERE active = 1")

	assert.True(t, report.Valid)
	assert.Empty(t, report.Risks)
	assert.Empty(t, report.ForbiddenOperations)
}

func TestValidateSecurity_ForbiddenKeywords(t *testing.T) {
	tests := []struct {
		query   string
		keyword string
	}{
		{"DROP TABLE customers", "DROP"},
		{"delete from customers", "DELETE"},
		{"UPDATE customers SET name = 'x'", "UPDATE"},
		{"Insert Into t Values (1)", "INSERT"},
		{"TRUNCATE TABLE logs", "TRUNCATE"},
		{"ALTER TABLE t ADD col INT", "ALTER"},
	}

	for _, tt := range tests {
		report := ValidateSecurity(tt.query)
		assert.False(t, report.Valid, "query %q", tt.query)
		assert.Contains(t, report.ForbiddenOperations, tt.keyword)
	}
}

func TestValidateSecurity_MultipleForbiddenKeywords(t *testing.T) {
	report := ValidateSecurity("DROP TABLE a; DELETE FROM b")

	assert.False(t, report.Valid)
	assert.Contains(t, report.ForbiddenOperations, "DROP")
	assert.Contains(t, report.ForbiddenOperations, "DELETE")
}

func TestValidateSecurity_InjectionRisksAreAdvisory(t *testing.T) {
	tests := []struct {
		query string
		risk  string
	}{
		{"SELECT sp_configure FROM settings", "sp_"},
		{"SELECT xp_cmdshell FROM t", "xp_"},
		{"SELECT * FROM OPENROWSET('x','y','z')", "openrowset"},
	}

	for _, tt := range tests {
		report := ValidateSecurity(tt.query)
		assert.True(t, report.Valid, "risks must not flip validity for %q", tt.query)
		require.NotEmpty(t, report.Risks)
		assert.Contains(t, report.Risks[0], tt.risk)
	}
}

func TestValidateSecurity_SystemTableAccess(t *testing.T) {
	report := ValidateSecurity("SELECT name FROM sys.tables")

	assert.True(t, report.Valid)
	require.NotEmpty(t, report.Risks)
	assert.Contains(t, report.Risks[0], "System table access: sys.")
}

func TestValidateSecurity_InjectionInLiteral(t *testing.T) {
	report := ValidateSecurity("SELECT id FROM t WHERE a = '1'' OR ''1''=''1'")

	assert.True(t, report.Valid)
	require.NotEmpty(t, report.Risks)
	assert.Contains(t, report.Risks[0], "string literal")
}
