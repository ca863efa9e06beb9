package sql

import (
	"strings"
)

// StatementType classifies a SQL statement by its leading keyword.
type StatementType string

const (
	StmtSelect  StatementType = "SELECT"
	StmtInsert  StatementType = "INSERT"
	StmtUpdate  StatementType = "UPDATE"
	StmtDelete  StatementType = "DELETE"
	StmtDDL     StatementType = "DDL" // CREATE, ALTER, DROP, TRUNCATE
	StmtUnknown StatementType = "UNKNOWN"
)

// DetectStatementType classifies a statement by its first keyword. WITH
// is treated as SELECT unless the CTE body modifies data, in which case
// the statement is Unknown and callers should reject it.
func DetectStatementType(query string) StatementType {
	normalized := strings.ToUpper(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(normalized, "SELECT"):
		return StmtSelect

	case strings.HasPrefix(normalized, "WITH"):
		if modifyingCTEPattern.MatchString(query) {
			return StmtUnknown
		}
		return StmtSelect

	case strings.HasPrefix(normalized, "INSERT"):
		return StmtInsert

	case strings.HasPrefix(normalized, "UPDATE"):
		return StmtUpdate

	case strings.HasPrefix(normalized, "DELETE"):
		return StmtDelete

	case strings.HasPrefix(normalized, "CREATE"),
		strings.HasPrefix(normalized, "ALTER"),
		strings.HasPrefix(normalized, "DROP"),
		strings.HasPrefix(normalized, "TRUNCATE"):
		return StmtDDL

	default:
		return StmtUnknown
	}
}

// IsReadOnly reports whether the statement type is safe for the engine to
// pass downstream. Only plain SELECTs qualify.
func IsReadOnly(t StatementType) bool {
	return t == StmtSelect
}
