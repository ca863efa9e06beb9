// Package models defines the value objects shared across the engine.
package models

// ConceptExample is a curated query/context pair attached to a business concept.
type ConceptExample struct {
	Query   string `yaml:"query" json:"query"`
	Context string `yaml:"context" json:"context"`
}

// BusinessConcept is a named domain rule loaded from the concept catalog.
// Name, Description, Target, and Instructions are mandatory; RequiredJoins
// and Examples default to empty. Concepts are immutable once loaded.
type BusinessConcept struct {
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description" json:"description"`
	Target        []string         `yaml:"target" json:"target"`
	Instructions  string           `yaml:"instructions" json:"instructions"`
	RequiredJoins []string         `yaml:"required_joins" json:"required_joins"`
	Examples      []ConceptExample `yaml:"examples" json:"examples"`
}

// Targets returns the concept's target entities as a set.
func (c *BusinessConcept) Targets() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Target))
	for _, t := range c.Target {
		set[t] = struct{}{}
	}
	return set
}

// ConceptMatch pairs a concept with its similarity to a user query.
type ConceptMatch struct {
	Concept    *BusinessConcept `json:"concept"`
	Similarity float64          `json:"similarity"`
}

// RankedExample is a concept example scored against a user query.
type RankedExample struct {
	Example     ConceptExample `json:"example"`
	Similarity  float64        `json:"similarity"`
	ConceptName string         `json:"concept_name,omitempty"`
}

// JoinValidation reports whether a concept's required joins can be satisfied
// by a set of available entities. A join counts as satisfied only when every
// entity referenced across the whole required-join list is available; this
// conjunctive check is intentional (it mirrors how the downstream SQL
// generator consumes the result, all-or-nothing per concept).
type JoinValidation struct {
	Valid            bool     `json:"valid"`
	MissingEntities  []string `json:"missing_entities"`
	SatisfiedJoins   []string `json:"satisfied_joins"`
	UnsatisfiedJoins []string `json:"unsatisfied_joins"`
}

// BusinessInstruction carries a matched concept's free-text guidance into
// SQL generation.
type BusinessInstruction struct {
	Concept      string  `json:"concept"`
	Instructions string  `json:"instructions"`
	Similarity   float64 `json:"similarity"`
}

// EntityCoverage summarizes how many of the applicable entities had at
// least one matched concept.
type EntityCoverage struct {
	TotalEntities        int `json:"total_entities"`
	EntitiesWithConcepts int `json:"entities_with_concepts"`
}

// MatchedConcept is the wire form of a concept match in a business context
// response.
type MatchedConcept struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	TargetEntities []string `json:"target_entities"`
	RequiredJoins  []string `json:"required_joins"`
	Similarity     float64  `json:"similarity"`
}

// BusinessContext is the assembled output of concept matching, example
// ranking, and join validation for one query. All slice and map fields are
// non-nil on every path, including failures.
type BusinessContext struct {
	Success              bool                      `json:"success"`
	Error                string                    `json:"error,omitempty"`
	MatchedConcepts      []MatchedConcept          `json:"matched_concepts"`
	BusinessInstructions []BusinessInstruction     `json:"business_instructions"`
	RelevantExamples     []RankedExample           `json:"relevant_examples"`
	JoinValidation       map[string]JoinValidation `json:"join_validation"`
	EntityCoverage       EntityCoverage            `json:"entity_coverage"`
}

// EmptyBusinessContext returns a successful context with all collections
// empty, used when no entities are applicable.
func EmptyBusinessContext() *BusinessContext {
	return &BusinessContext{
		Success:              true,
		MatchedConcepts:      []MatchedConcept{},
		BusinessInstructions: []BusinessInstruction{},
		RelevantExamples:     []RankedExample{},
		JoinValidation:       map[string]JoinValidation{},
		EntityCoverage:       EntityCoverage{},
	}
}

// FailedBusinessContext returns a failure context with all collections
// defaulted, so callers never see a partial structure.
func FailedBusinessContext(errMsg string) *BusinessContext {
	ctx := EmptyBusinessContext()
	ctx.Success = false
	ctx.Error = errMsg
	return ctx
}
