package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// ErrMultipleStatements indicates the input contains more than one SQL
// statement.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

// modifyingCTEPattern catches data-modifying statements hidden inside a
// common table expression, e.g. WITH x AS (DELETE FROM t RETURNING *).
var modifyingCTEPattern = regexp.MustCompile(`(?i)\bAS\s*\(\s*(INSERT|UPDATE|DELETE)\b`)

// Normalize trims surrounding whitespace and a single trailing semicolon,
// and rejects input that still carries a semicolon outside string literals.
// The validation cache keys on the normalized form, so cosmetic variants of
// one statement share a report.
func Normalize(sqlText string) (string, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(sqlText))
	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// ValidateSyntax runs the structural checks over a SQL string: non-empty,
// single read-only statement, SELECT/FROM present, balanced parentheses. A
// trailing semicolon is normalized away and reported as a warning, not an
// error.
func ValidateSyntax(query string) models.SyntaxReport {
	report := models.SyntaxReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		report.Valid = false
		report.Errors = append(report.Errors, "Empty query")
		return report
	}

	if strings.HasSuffix(trimmed, ";") {
		report.Warnings = append(report.Warnings, "Semicolon at end of statement")
	}
	normalized := stripTrailingSemicolon(trimmed)
	if normalized == "" {
		report.Valid = false
		report.Errors = append(report.Errors, "Empty query")
		return report
	}

	if hasSemicolonOutsideStrings(normalized) {
		report.Valid = false
		report.Errors = append(report.Errors, ErrMultipleStatements.Error())
	}

	upper := strings.ToUpper(normalized)
	if !strings.Contains(upper, "SELECT") && !strings.Contains(upper, "FROM") {
		report.Valid = false
		report.Errors = append(report.Errors, "Missing required SELECT and FROM clauses")
	}

	if strings.Count(normalized, "(") != strings.Count(normalized, ")") {
		report.Valid = false
		report.Errors = append(report.Errors, "Unbalanced parentheses")
	}

	if modifyingCTEPattern.MatchString(normalized) {
		report.Valid = false
		report.Errors = append(report.Errors, "Data-modifying statement inside common table expression")
	} else if stmtType := DetectStatementType(normalized); !IsReadOnly(stmtType) {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("%s statements are not accepted; submit a single SELECT", stmtType))
	}

	return report
}

// hasSemicolonOutsideStrings scans for a semicolon that is not inside a
// single- or double-quoted run. Doubled quotes ('') and backslash escapes
// both keep the scanner inside the literal.
func hasSemicolonOutsideStrings(query string) bool {
	var inSingle, inDouble bool
	var prev rune

	for _, r := range query {
		switch {
		case inSingle:
			if r == '\'' && prev != '\\' {
				inSingle = false
			}
		case inDouble:
			if r == '"' && prev != '\\' {
				inDouble = false
			}
		case r == '\'':
			inSingle = true
		case r == '"':
			inDouble = true
		case r == ';':
			return true
		}
		prev = r
	}

	return false
}

// stripTrailingSemicolon drops one trailing semicolon and the whitespace
// around it.
func stripTrailingSemicolon(query string) string {
	query = strings.TrimRight(query, " \t\n\r")
	query = strings.TrimSuffix(query, ";")
	return strings.TrimRight(query, " \t\n\r")
}
