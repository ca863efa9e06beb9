package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/queryforge-ai/queryforge-engine/pkg/concepts"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// aggregateFunctions are the call prefixes that satisfy an aggregation
// instruction.
var aggregateFunctions = []string{"sum(", "count(", "avg(", "max(", "min("}

// dateTokens satisfy a time-based analysis instruction.
var dateTokens = []string{"date", "time", "year", "month", "day"}

// expectedPatterns holds soft per-concept keyword expectations. A miss is
// a warning, never a hard issue.
var expectedPatterns = map[string][]string{
	"customer_lifetime_value":    {"SUM", "COUNT", "customer"},
	"sales_performance_analysis": {"SUM", "AVG", "sales"},
	"inventory_analysis":         {"COUNT", "SUM", "inventory"},
}

// joinClausePattern captures the table (and optional alias) after each
// JOIN keyword. Best-effort text scan, not a parser.
var joinClausePattern = regexp.MustCompile(`(?i)\bjoin\s+([\w.\[\]]+)(?:\s+(?:as\s+)?(\w+))?`)

// fromClausePattern captures the table (and optional alias) after FROM.
var fromClausePattern = regexp.MustCompile(`(?i)\bfrom\s+([\w.\[\]]+)(?:\s+(?:as\s+)?(\w+))?`)

// onConditionPattern captures the condition text after each ON keyword up
// to the next clause boundary.
var onConditionPattern = regexp.MustCompile(`(?i)\bon\s+(.+?)(?:\b(?:inner|left|right|full|cross)?\s*join\b|\bwhere\b|\bgroup\s+by\b|\border\s+by\b|\bhaving\b|$)`)

// ValidateBusiness checks a SQL string against the matched concepts of a
// business context: required joins must be satisfiable by the tables the
// query references, and each concept's instruction triggers (time,
// aggregation, grouping) must be met. Per-concept soft pattern
// expectations produce warnings only.
func ValidateBusiness(query string, bc *models.BusinessContext) models.BusinessReport {
	report := models.BusinessReport{
		Valid:             true,
		Issues:            []string{},
		Warnings:          []string{},
		ConceptCompliance: map[string]models.ConceptCompliance{},
	}

	if bc == nil || len(bc.MatchedConcepts) == 0 {
		return report
	}

	instructions := instructionsByConcept(bc)
	referenced := referencedEntities(query)

	for _, concept := range bc.MatchedConcepts {
		compliance := validateConcept(query, concept, instructions[concept.Name], referenced)
		report.ConceptCompliance[concept.Name] = compliance

		if !compliance.Valid {
			report.Valid = false
			report.Issues = append(report.Issues, compliance.Issues...)
		}
		report.Warnings = append(report.Warnings, compliance.Warnings...)
	}

	return report
}

func validateConcept(query string, concept models.MatchedConcept, instructions string, referenced []string) models.ConceptCompliance {
	compliance := models.ConceptCompliance{
		Valid:    true,
		Issues:   []string{},
		Warnings: []string{},
	}

	if len(concept.RequiredJoins) > 0 {
		joinCheck := concepts.ValidateJoins(referenced, concept.RequiredJoins)
		if !joinCheck.Valid {
			compliance.Valid = false
			compliance.Issues = append(compliance.Issues,
				fmt.Sprintf("Missing required joins: %v", joinCheck.UnsatisfiedJoins))
		}
	}

	if instructions != "" {
		if issue := checkInstruction(query, instructions); issue != "" {
			compliance.Valid = false
			compliance.Issues = append(compliance.Issues, issue)
		}
	}

	if patterns, ok := expectedPatterns[concept.Name]; ok {
		queryLower := strings.ToLower(query)
		for _, pattern := range patterns {
			if !strings.Contains(queryLower, strings.ToLower(pattern)) {
				compliance.Warnings = append(compliance.Warnings,
					fmt.Sprintf("Expected pattern '%s' not found in query", pattern))
			}
		}
	}

	return compliance
}

// checkInstruction maps instruction keywords to structural requirements on
// the SQL. Returns an issue message when a requirement is unmet, empty
// when compliant.
func checkInstruction(query, instruction string) string {
	instructionLower := strings.ToLower(instruction)
	queryLower := strings.ToLower(query)

	if strings.Contains(instructionLower, "time") || strings.Contains(instructionLower, "date") {
		if !containsAny(queryLower, dateTokens) {
			return "Time-based analysis required but no date/time filtering found"
		}
	}

	if strings.Contains(instructionLower, "calculate") || strings.Contains(instructionLower, "sum") {
		if !containsAny(queryLower, aggregateFunctions) {
			return "Aggregation required but no aggregation functions found"
		}
	}

	if strings.Contains(instructionLower, "group") {
		if !strings.Contains(queryLower, "group by") {
			return "Grouping required but no GROUP BY clause found"
		}
	}

	return ""
}

// referencedEntities extracts the tables, aliases, and join-condition
// qualifiers a query mentions. Intentionally permissive: anything the
// query names counts as available for join validation.
var reservedWords = map[string]struct{}{
	"select": {}, "from": {}, "join": {}, "inner": {}, "left": {}, "right": {},
	"full": {}, "cross": {}, "outer": {}, "on": {}, "where": {}, "group": {},
	"order": {}, "having": {}, "as": {}, "and": {}, "or": {}, "by": {},
}

func referencedEntities(query string) []string {
	seen := make(map[string]struct{})
	var entities []string
	var add func(string)
	add = func(name string) {
		name = strings.ToLower(strings.Trim(name, "[]"))
		if name == "" {
			return
		}
		if _, reserved := reservedWords[name]; reserved {
			return
		}
		// Schema-qualified names also contribute their bare table name.
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			add(name[idx+1:])
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		entities = append(entities, name)
	}

	for _, m := range fromClausePattern.FindAllStringSubmatch(query, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range joinClausePattern.FindAllStringSubmatch(query, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range onConditionPattern.FindAllStringSubmatch(query, -1) {
		for _, side := range strings.Split(m[1], "=") {
			side = strings.TrimSpace(side)
			if idx := strings.Index(side, "."); idx > 0 {
				add(strings.TrimSpace(side[:idx]))
			}
		}
	}

	return entities
}

func instructionsByConcept(bc *models.BusinessContext) map[string]string {
	byName := make(map[string]string, len(bc.BusinessInstructions))
	for _, instr := range bc.BusinessInstructions {
		byName[instr.Concept] = instr.Instructions
	}
	return byName
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
