// Package optimizer provides heuristic SQL complexity scoring and
// rule-based optimization advice. It operates on the query text only;
// nothing here consults table statistics or an execution plan.
package optimizer

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// complexityWeights maps a case-insensitive substring to its contribution
// per occurrence.
var complexityWeights = []struct {
	token  string
	weight int
}{
	{"join", 5},
	{"select", 2},
	{"where", 3},
	{"group by", 4},
	{"order by", 3},
	{"having", 4},
	{"union", 6},
	{"subquery", 5},
}

// Optimizer analyzes SQL text for complexity and improvement opportunities.
type Optimizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Optimizer {
	return &Optimizer{logger: logger.Named("query-optimizer")}
}

// Analyze produces the full optimization report for a query.
func (o *Optimizer) Analyze(query string) models.OptimizationReport {
	suggestions := o.suggestions(query)
	issues := o.issues(query)

	report := models.OptimizationReport{
		ComplexityScore:         ComplexityScore(query),
		OptimizationSuggestions: suggestions,
		PerformanceIssues:       issues,
		EstimatedImpact:         estimateImpact(suggestions, issues),
	}

	o.logger.Debug("analyzed query",
		zap.Int("complexity_score", report.ComplexityScore),
		zap.Int("suggestions", len(suggestions)),
		zap.String("estimated_impact", report.EstimatedImpact))

	return report
}

// ComplexityScore is a weighted count of clause keywords plus a penalty
// for unbalanced parentheses.
func ComplexityScore(query string) int {
	queryLower := strings.ToLower(query)

	score := 0
	for _, cw := range complexityWeights {
		score += strings.Count(queryLower, cw.token) * cw.weight
	}

	unbalanced := strings.Count(query, "(") - strings.Count(query, ")")
	if unbalanced < 0 {
		unbalanced = -unbalanced
	}
	score += unbalanced * 2

	return score
}

func (o *Optimizer) suggestions(query string) []models.OptimizationSuggestion {
	suggestions := []models.OptimizationSuggestion{}
	queryLower := strings.ToLower(query)

	if strings.Contains(queryLower, "select *") {
		suggestions = append(suggestions, models.OptimizationSuggestion{
			Type:     "performance",
			Priority: "high",
			Message:  "Replace SELECT * with specific column names",
			Impact:   models.ImpactMedium,
		})
	}

	if strings.Contains(queryLower, "from") && !strings.Contains(queryLower, "where") {
		suggestions = append(suggestions, models.OptimizationSuggestion{
			Type:     "performance",
			Priority: "medium",
			Message:  "Consider adding WHERE clause for large tables",
			Impact:   models.ImpactHigh,
		})
	}

	if strings.Count(queryLower, "join") > 2 {
		suggestions = append(suggestions, models.OptimizationSuggestion{
			Type:     "performance",
			Priority: "medium",
			Message:  "Multiple JOINs detected - consider optimizing join order",
			Impact:   models.ImpactMedium,
		})
	}

	if strings.Contains(queryLower, "select") && strings.Contains(queryLower, "(") {
		suggestions = append(suggestions, models.OptimizationSuggestion{
			Type:     "performance",
			Priority: "low",
			Message:  "Consider using JOINs instead of subqueries in SELECT",
			Impact:   models.ImpactMedium,
		})
	}

	return suggestions
}

func (o *Optimizer) issues(query string) []models.OptimizerIssue {
	issues := []models.OptimizerIssue{}
	queryLower := strings.ToLower(query)

	if strings.Contains(queryLower, "select *") {
		issues = append(issues, models.OptimizerIssue{
			Type:        "anti_pattern",
			Severity:    "warning",
			Description: "SELECT * usage may return unnecessary data",
		})
	}

	if strings.Contains(queryLower, "order by") && !strings.Contains(queryLower, "limit") {
		issues = append(issues, models.OptimizerIssue{
			Type:        "performance",
			Severity:    "info",
			Description: "ORDER BY without LIMIT may process large result sets",
		})
	}

	if strings.Count(queryLower, "select") > 3 {
		issues = append(issues, models.OptimizerIssue{
			Type:        "complexity",
			Severity:    "warning",
			Description: "Multiple SELECT statements may indicate inefficient query structure",
		})
	}

	return issues
}

// estimateImpact rolls suggestions and issues up into a single level: any
// high-priority or high-impact suggestion dominates, volume alone is
// medium, otherwise low.
func estimateImpact(suggestions []models.OptimizationSuggestion, issues []models.OptimizerIssue) string {
	for _, s := range suggestions {
		if s.Priority == "high" || s.Impact == models.ImpactHigh {
			return models.ImpactHigh
		}
	}
	if len(suggestions) > 2 || len(issues) > 2 {
		return models.ImpactMedium
	}
	return models.ImpactLow
}

// SuggestJoinOrder extracts the tables referenced after FROM and JOIN and
// orders them by name length ascending as a crude size proxy. Placeholder
// heuristic until plan statistics are available.
func SuggestJoinOrder(query string) []string {
	tables := ExtractTableNames(query)

	if len(tables) <= 2 {
		return tables
	}

	sort.SliceStable(tables, func(i, j int) bool {
		return len(tables[i]) < len(tables[j])
	})
	return tables
}

// ExtractTableNames token-scans the query for identifiers following FROM
// and JOIN. Subselects in those positions are skipped.
func ExtractTableNames(query string) []string {
	words := strings.Fields(strings.ToLower(query))

	seen := make(map[string]struct{})
	var tables []string

	for i, word := range words {
		if word != "from" && word != "join" {
			continue
		}
		if i+1 >= len(words) {
			continue
		}
		name := strings.Trim(words[i+1], ";,)")
		if name == "" || strings.HasPrefix(name, "(") {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}

	return tables
}
