package models

// SyntaxReport is the result of the syntax validation pass.
type SyntaxReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SecurityReport is the result of the security validation pass. Forbidden
// operations flip Valid; Risks are advisory only.
type SecurityReport struct {
	Valid               bool     `json:"valid"`
	Risks               []string `json:"risks"`
	ForbiddenOperations []string `json:"forbidden_operations"`
}

// BusinessReport is the result of validating SQL against matched concepts.
type BusinessReport struct {
	Valid             bool                         `json:"valid"`
	Issues            []string                     `json:"issues"`
	Warnings          []string                     `json:"warnings"`
	ConceptCompliance map[string]ConceptCompliance `json:"concept_compliance"`
}

// ConceptCompliance is the per-concept breakdown inside a BusinessReport.
type ConceptCompliance struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// PerformanceIssue is a single advisory finding from the performance pass.
type PerformanceIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ValidationReport aggregates the four validation passes over one SQL
// string. Performance findings never affect IsValid.
type ValidationReport struct {
	Syntax      SyntaxReport       `json:"syntax"`
	Security    SecurityReport     `json:"security"`
	Business    BusinessReport     `json:"business"`
	Performance []PerformanceIssue `json:"performance_issues"`
}

// IsValid reports overall SQL validity: syntax, business, and security must
// all pass.
func (r *ValidationReport) IsValid() bool {
	return r.Syntax.Valid && r.Business.Valid && r.Security.Valid
}

// ValidationSummary is the flattened validation view exposed on the public
// contract surface.
type ValidationSummary struct {
	SyntaxValid       bool               `json:"syntax_valid"`
	BusinessCompliant bool               `json:"business_compliant"`
	SecurityValid     bool               `json:"security_valid"`
	PerformanceIssues []PerformanceIssue `json:"performance_issues"`
	IsValid           bool               `json:"is_valid"`
}

// Summary flattens the report for callers that only need the gate bits.
func (r *ValidationReport) Summary() ValidationSummary {
	issues := r.Performance
	if issues == nil {
		issues = []PerformanceIssue{}
	}
	return ValidationSummary{
		SyntaxValid:       r.Syntax.Valid,
		BusinessCompliant: r.Business.Valid,
		SecurityValid:     r.Security.Valid,
		PerformanceIssues: issues,
		IsValid:           r.IsValid(),
	}
}
