package sql

import (
	"strings"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// CheckPerformance scans a SQL string for common anti-patterns. Findings
// are advisory and never affect overall validity.
func CheckPerformance(query string) []models.PerformanceIssue {
	issues := []models.PerformanceIssue{}
	queryLower := strings.ToLower(query)

	if hasSelectStar(queryLower) {
		issues = append(issues, models.PerformanceIssue{
			Type:     "performance",
			Severity: "warning",
			Message:  "SELECT * usage detected - consider specifying only needed columns",
		})
	}

	if strings.Contains(queryLower, "from") && !strings.Contains(queryLower, "where") {
		issues = append(issues, models.PerformanceIssue{
			Type:     "performance",
			Severity: "warning",
			Message:  "No WHERE clause detected - consider adding filters for large tables",
		})
	}

	if strings.Count(queryLower, "join") > 2 {
		issues = append(issues, models.PerformanceIssue{
			Type:     "performance",
			Severity: "warning",
			Message:  "More than two JOINs detected - verify query plan and join order",
		})
	}

	if strings.Count(queryLower, "select") > 3 {
		issues = append(issues, models.PerformanceIssue{
			Type:     "performance",
			Severity: "info",
			Message:  "Multiple SELECT statements detected - consider using JOINs or subqueries",
		})
	}

	if strings.Contains(queryLower, "join") && !strings.Contains(queryLower, "index") {
		issues = append(issues, models.PerformanceIssue{
			Type:     "performance",
			Severity: "info",
			Message:  "JOIN detected without index hints - verify proper indexing",
		})
	}

	return issues
}

// hasSelectStar reports whether any SELECT in the query projects *.
func hasSelectStar(queryLower string) bool {
	if !strings.Contains(queryLower, "select *") {
		return false
	}
	parts := strings.Split(queryLower, "select")
	for _, part := range parts[1:] {
		if strings.HasPrefix(strings.TrimSpace(part), "*") {
			return true
		}
	}
	return false
}
