package models

// Estimated impact levels for an optimization report.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// OptimizationSuggestion is an actionable rewrite hint.
type OptimizationSuggestion struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
}

// OptimizerIssue is an observational finding from query analysis, distinct
// from the actionable suggestions.
type OptimizerIssue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// OptimizationReport is the result of heuristic query analysis. Suggestions
// are actionable; PerformanceIssues are observational restatements of the
// same anti-patterns for reporting.
type OptimizationReport struct {
	ComplexityScore         int                      `json:"complexity_score"`
	OptimizationSuggestions []OptimizationSuggestion `json:"optimization_suggestions"`
	PerformanceIssues       []OptimizerIssue         `json:"performance_issues"`
	EstimatedImpact         string                   `json:"estimated_impact"`
}
