package sql

import (
	"fmt"
	"strings"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// forbiddenKeywords are data-mutating operations the engine never emits;
// their presence fails security validation outright.
var forbiddenKeywords = []string{"DROP", "DELETE", "UPDATE", "INSERT", "TRUNCATE", "ALTER"}

// injectionSubstrings are dynamic-SQL entry points that show up in
// injection payloads. Matching one records a risk without failing the
// query.
var injectionSubstrings = []string{"exec(", "execute(", "sp_", "xp_", "openrowset", "opendatasource"}

// systemTablePrefixes flag access to engine catalogs and system databases.
var systemTablePrefixes = []string{"sys.", "information_schema.", "master.", "tempdb."}

// ValidateSecurity scans a SQL string for forbidden mutations, injection
// risk substrings, and system table access. Forbidden keywords flip Valid;
// everything else lands in Risks as advisory findings.
func ValidateSecurity(query string) models.SecurityReport {
	report := models.SecurityReport{
		Valid:               true,
		Risks:               []string{},
		ForbiddenOperations: []string{},
	}

	upper := strings.ToUpper(query)
	lower := strings.ToLower(query)

	for _, keyword := range forbiddenKeywords {
		if strings.Contains(upper, keyword) {
			report.Valid = false
			report.ForbiddenOperations = append(report.ForbiddenOperations, keyword)
		}
	}

	for _, pattern := range injectionSubstrings {
		if strings.Contains(lower, pattern) {
			report.Risks = append(report.Risks, fmt.Sprintf("Potential SQL injection risk: %s", pattern))
		}
	}

	for _, prefix := range systemTablePrefixes {
		if strings.Contains(lower, prefix) {
			report.Risks = append(report.Risks, fmt.Sprintf("System table access: %s", prefix))
		}
	}

	for _, finding := range CheckStringLiterals(query) {
		report.Risks = append(report.Risks,
			fmt.Sprintf("Injection pattern in string literal (fingerprint %s)", finding.Fingerprint))
	}

	return report
}
