package sql

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding records a value that libinjection fingerprinted as a
// SQL injection attempt.
type InjectionFinding struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Source      string // where the value came from (parameter name or "literal")
	Value       string // the offending text
}

// CheckValue runs libinjection over a single input value. Only strings are
// checked; numbers and booleans cannot carry injection payloads. Returns
// nil when the value is clean.
func CheckValue(source string, value any) *InjectionFinding {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionFinding{
		Fingerprint: fingerprint,
		Source:      source,
		Value:       strValue,
	}
}

// CheckStringLiterals extracts the single-quoted literals from a SQL
// string and runs libinjection over each. Doubled quotes ('') inside a
// literal are treated as escapes.
func CheckStringLiterals(query string) []*InjectionFinding {
	var findings []*InjectionFinding
	for _, literal := range extractStringLiterals(query) {
		if finding := CheckValue("literal", literal); finding != nil {
			findings = append(findings, finding)
		}
	}
	return findings
}

// extractStringLiterals returns the contents of every single-quoted
// literal in the query, with '' unescaped to '.
func extractStringLiterals(query string) []string {
	var literals []string
	runes := []rune(query)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '\'' {
			continue
		}
		var sb strings.Builder
		j := i + 1
		for ; j < len(runes); j++ {
			if runes[j] == '\'' {
				if j+1 < len(runes) && runes[j+1] == '\'' {
					sb.WriteRune('\'')
					j++
					continue
				}
				break
			}
			sb.WriteRune(runes[j])
		}
		literals = append(literals, sb.String())
		i = j
	}

	return literals
}
