package concepts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogDoc = `
concepts:
  - name: customer_lifetime_value
    description: Total value a customer brings over the whole relationship
    target: [customers, accounts]
    instructions: Calculate the sum of balances per customer and group by customer
    required_joins:
      - customers.id=accounts.customer_id
    examples:
      - query: What is the lifetime value of each customer?
        context: SELECT c.name, SUM(a.balance) FROM customers c JOIN accounts a ON c.id = a.customer_id GROUP BY c.name
  - name: account_activity
    description: Recent transaction activity per account
    target: [accounts, transactions]
    instructions: Use date filters when analyzing activity over time
`

const malformedDoc = `
concepts:
  - name: valid_concept
    description: A complete record
    target: [orders]
    instructions: Sum order totals
  - name: missing_target
    description: No target list at all
    instructions: Broken record
  - description: missing name entirely
    target: [orders]
    instructions: Also broken
  - name: target_not_a_list
    description: Wrong target type
    target: orders
    instructions: Broken too
`

func writeCatalog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_LoadsValidConcepts(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "banking.yaml", catalogDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, l.Len())

	clv := l.GetByName("customer_lifetime_value")
	require.NotNil(t, clv)
	assert.Equal(t, []string{"customers", "accounts"}, clv.Target)
	assert.Len(t, clv.RequiredJoins, 1)
	assert.Len(t, clv.Examples, 1)

	// Optional fields default to empty.
	activity := l.GetByName("account_activity")
	require.NotNil(t, activity)
	assert.Empty(t, activity.RequiredJoins)
	assert.Empty(t, activity.Examples)
}

func TestLoader_SkipsMalformedRecords(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "mixed.yaml", malformedDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)

	// Only the complete record survives; malformed ones are skipped, not fatal.
	assert.Equal(t, 1, l.Len())
	assert.NotNil(t, l.GetByName("valid_concept"))
	assert.Nil(t, l.GetByName("missing_target"))
	assert.Nil(t, l.GetByName("target_not_a_list"))
}

func TestLoader_SearchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "finance")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeCatalog(t, sub, "banking.yml", catalogDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestLoader_MissingDirectoryIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())

	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
}

func TestLoader_ForEntities(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "banking.yaml", catalogDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)

	matches := l.ForEntities([]string{"transactions"})
	require.Len(t, matches, 1)
	assert.Equal(t, "account_activity", matches[0].Name)

	// Catalog order is preserved when multiple concepts apply.
	matches = l.ForEntities([]string{"accounts"})
	require.Len(t, matches, 2)
	assert.Equal(t, "customer_lifetime_value", matches[0].Name)

	assert.Empty(t, l.ForEntities([]string{"unknown"}))
}

func TestLoader_ReloadReplacesCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "banking.yaml", catalogDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "banking.yaml")))
	writeCatalog(t, dir, "other.yaml", malformedDoc)

	require.NoError(t, l.Reload())
	assert.Equal(t, 1, l.Len())
	assert.Nil(t, l.GetByName("customer_lifetime_value"))
	assert.NotNil(t, l.GetByName("valid_concept"))
}

func TestLoader_BadYAMLFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "broken.yaml", "concepts: [{{{nope")
	writeCatalog(t, dir, "good.yaml", catalogDoc)

	l, err := NewLoader(dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}
