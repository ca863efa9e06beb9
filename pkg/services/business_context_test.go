package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/concepts"
	"github.com/queryforge-ai/queryforge-engine/pkg/similarity"
)

const testCatalog = `concepts:
  - name: customer_lifetime_value
    description: "customer lifetime value"
    target: [customers, orders]
    instructions: "Calculate total order value per customer over time"
    required_joins:
      - "customers.id = orders.customer_id"
    examples:
      - query: "total customer lifetime value"
        context: "lifetime value per customer"
      - query: "customer value by segment"
        context: "segmented lifetime value"
  - name: inventory_turnover
    description: "inventory turnover analysis"
    target: [inventory]
    instructions: "Calculate inventory turnover ratios"
`

func newTestAssembler(t *testing.T) BusinessContextService {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "concepts.yaml"), []byte(testCatalog), 0o644))

	loader, err := concepts.NewLoader(dir, zap.NewNop())
	require.NoError(t, err)

	scorer := similarity.NewScorer(nil, zap.NewNop())
	matcher := concepts.NewMatcher(scorer, zap.NewNop())

	return NewBusinessContextService(loader, matcher, 0, 0, zap.NewNop())
}

func TestAssemble_EmptyEntities(t *testing.T) {
	svc := newTestAssembler(t)

	bc := svc.Assemble(context.Background(), "anything", nil)

	assert.True(t, bc.Success)
	assert.Empty(t, bc.MatchedConcepts)
	assert.Empty(t, bc.BusinessInstructions)
	assert.Empty(t, bc.RelevantExamples)
	assert.Empty(t, bc.JoinValidation)
	assert.Equal(t, 0, bc.EntityCoverage.TotalEntities)
}

func TestAssemble_MatchedConcept(t *testing.T) {
	svc := newTestAssembler(t)

	bc := svc.Assemble(context.Background(), "customer lifetime value",
		[]string{"customers", "orders"})

	require.True(t, bc.Success)
	require.Len(t, bc.MatchedConcepts, 1)

	matched := bc.MatchedConcepts[0]
	assert.Equal(t, "customer_lifetime_value", matched.Name)
	assert.Equal(t, []string{"customers", "orders"}, matched.TargetEntities)
	assert.Greater(t, matched.Similarity, 0.5)

	require.Len(t, bc.BusinessInstructions, 1)
	assert.Equal(t, "customer_lifetime_value", bc.BusinessInstructions[0].Concept)
	assert.Contains(t, bc.BusinessInstructions[0].Instructions, "Calculate")

	require.NotEmpty(t, bc.RelevantExamples)
	assert.Equal(t, "customer_lifetime_value", bc.RelevantExamples[0].ConceptName)

	join, ok := bc.JoinValidation["customer_lifetime_value"]
	require.True(t, ok)
	assert.True(t, join.Valid)

	assert.Equal(t, 2, bc.EntityCoverage.TotalEntities)
	assert.Equal(t, 2, bc.EntityCoverage.EntitiesWithConcepts)
}

func TestAssemble_ConceptOutsideEntityScope(t *testing.T) {
	svc := newTestAssembler(t)

	// Inventory is not among the applicable entities, so its concept is
	// never even considered.
	bc := svc.Assemble(context.Background(), "inventory turnover analysis",
		[]string{"customers"})

	assert.True(t, bc.Success)
	assert.Empty(t, bc.MatchedConcepts)
}

func TestAssemble_JoinValidationReportsMissingEntity(t *testing.T) {
	svc := newTestAssembler(t)

	bc := svc.Assemble(context.Background(), "customer lifetime value",
		[]string{"customers"})

	require.True(t, bc.Success)
	require.Len(t, bc.MatchedConcepts, 1)

	join := bc.JoinValidation["customer_lifetime_value"]
	assert.False(t, join.Valid)
	assert.Contains(t, join.MissingEntities, "orders")

	// A failed join validation never fails the assembly itself.
	assert.Equal(t, 1, bc.EntityCoverage.TotalEntities)
	assert.Equal(t, 1, bc.EntityCoverage.EntitiesWithConcepts)
}

func TestAssemble_NoMatchBelowThreshold(t *testing.T) {
	svc := newTestAssembler(t)

	bc := svc.Assemble(context.Background(), "weather forecast tomorrow",
		[]string{"customers", "orders"})

	assert.True(t, bc.Success)
	assert.Empty(t, bc.MatchedConcepts)
	assert.Equal(t, 2, bc.EntityCoverage.TotalEntities)
	assert.Equal(t, 0, bc.EntityCoverage.EntitiesWithConcepts)
}
