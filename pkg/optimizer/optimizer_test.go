package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

func TestComplexityScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{
			name:  "simple select",
			query: "SELECT id FROM t",
			// select*2
			want: 2,
		},
		{
			name:  "select with where",
			query: "SELECT id FROM t WHERE id = 1",
			// select*2 + where*3
			want: 5,
		},
		{
			name:  "join with grouping",
			query: "SELECT a.id FROM a JOIN b ON a.id = b.a WHERE a.x = 1 GROUP BY a.id",
			// join*5 + select*2 + where*3 + group by*4
			want: 14,
		},
		{
			name:  "union of two selects",
			query: "SELECT id FROM a UNION SELECT id FROM b",
			// select*4 + union*6
			want: 10,
		},
		{
			name:  "unbalanced parentheses penalty",
			query: "SELECT COUNT(id FROM t",
			// select*2 + abs(1)*2
			want: 4,
		},
		{
			name:  "empty query",
			query: "",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComplexityScore(tt.query))
		})
	}
}

func TestComplexityScore_MonotonicInJoins(t *testing.T) {
	base := "SELECT a.id FROM a WHERE a.x = 1"
	withJoin := "SELECT a.id FROM a JOIN b ON a.id = b.a WHERE a.x = 1"
	withTwoJoins := "SELECT a.id FROM a JOIN b ON a.id = b.a JOIN c ON b.id = c.b WHERE a.x = 1"

	assert.Less(t, ComplexityScore(base), ComplexityScore(withJoin))
	assert.Less(t, ComplexityScore(withJoin), ComplexityScore(withTwoJoins))
}

func TestAnalyze_SelectStar(t *testing.T) {
	o := New(zap.NewNop())

	report := o.Analyze("SELECT * FROM customers")

	require.NotEmpty(t, report.OptimizationSuggestions)
	assert.Equal(t, "high", report.OptimizationSuggestions[0].Priority)
	assert.Contains(t, report.OptimizationSuggestions[0].Message, "SELECT *")

	require.NotEmpty(t, report.PerformanceIssues)
	assert.Equal(t, "anti_pattern", report.PerformanceIssues[0].Type)

	// A high-priority suggestion dominates the estimate.
	assert.Equal(t, models.ImpactHigh, report.EstimatedImpact)
}

func TestAnalyze_MissingWhereIsHighImpact(t *testing.T) {
	o := New(zap.NewNop())

	report := o.Analyze("SELECT id FROM orders")

	assert.Equal(t, models.ImpactHigh, report.EstimatedImpact)

	var found bool
	for _, s := range report.OptimizationSuggestions {
		if s.Impact == models.ImpactHigh {
			found = true
		}
	}
	assert.True(t, found, "expected a high-impact suggestion for missing WHERE")
}

func TestAnalyze_CleanQueryIsLowImpact(t *testing.T) {
	o := New(zap.NewNop())

	report := o.Analyze("SELECT id, name FROM customers WHERE active = 1")

	assert.Empty(t, report.OptimizationSuggestions)
	assert.Empty(t, report.PerformanceIssues)
	assert.Equal(t, models.ImpactLow, report.EstimatedImpact)
}

func TestAnalyze_OrderByWithoutLimit(t *testing.T) {
	o := New(zap.NewNop())

	report := o.Analyze("SELECT id FROM orders WHERE total > 10 ORDER BY total")

	require.NotEmpty(t, report.PerformanceIssues)
	assert.Contains(t, report.PerformanceIssues[0].Description, "ORDER BY without LIMIT")
}

func TestExtractTableNames(t *testing.T) {
	query := "SELECT a.id FROM orders a JOIN customers c ON a.cid = c.id JOIN payments p ON p.oid = a.id"

	tables := ExtractTableNames(query)

	assert.Equal(t, []string{"orders", "customers", "payments"}, tables)
}

func TestExtractTableNames_SkipsSubselects(t *testing.T) {
	query := "SELECT x.id FROM (SELECT id FROM orders) x"

	tables := ExtractTableNames(query)

	assert.NotContains(t, tables, "(select")
	assert.Contains(t, tables, "orders")
}

func TestSuggestJoinOrder_SortsByNameLength(t *testing.T) {
	query := "SELECT 1 FROM transactions t JOIN a ON t.a = a.id JOIN customers c ON t.c = c.id"

	order := SuggestJoinOrder(query)

	assert.Equal(t, []string{"a", "customers", "transactions"}, order)
}

func TestSuggestJoinOrder_TwoTablesKeepOrder(t *testing.T) {
	query := "SELECT 1 FROM transactions t JOIN a ON t.a = a.id"

	assert.Equal(t, []string{"transactions", "a"}, SuggestJoinOrder(query))
}
