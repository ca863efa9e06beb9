package models

// EntityCandidate is a table offered to the ranker, typically sourced from
// the document store's search results.
type EntityCandidate struct {
	Name            string  `json:"name"`
	BusinessPurpose string  `json:"business_purpose"`
	SearchScore     float64 `json:"search_score"` // semantic score from the vector index, 0 if unavailable
}

// RelevanceFactors are the three component scores behind an entity's
// overall relevance.
type RelevanceFactors struct {
	SemanticSimilarity   float64 `json:"semantic_similarity"`
	BusinessPurposeMatch float64 `json:"business_purpose_match"`
	TableNameRelevance   float64 `json:"table_name_relevance"`
}

// EntityMatch is one ranked table in an entity recognition result.
type EntityMatch struct {
	TableName       string           `json:"table_name"`
	BusinessPurpose string           `json:"business_purpose"`
	RelevanceScore  float64          `json:"relevance_score"`
	Factors         RelevanceFactors `json:"relevance_factors"`
	Recommendation  string           `json:"recommendation"`
}

// EntityRecommendation is a priority-ordered suggestion derived from the
// ranked entities.
type EntityRecommendation struct {
	Priority        int     `json:"priority"`
	TableName       string  `json:"table_name"`
	RelevanceScore  float64 `json:"relevance_score"`
	BusinessPurpose string  `json:"business_purpose"`
	Recommendation  string  `json:"recommendation"`
}

// EntityResult is the outcome of entity recognition for one query.
type EntityResult struct {
	Success            bool                   `json:"success"`
	Error              string                 `json:"error,omitempty"`
	ApplicableEntities []EntityMatch          `json:"applicable_entities"`
	Recommendations    []EntityRecommendation `json:"recommendations"`
	Analysis           string                 `json:"analysis"`
	Confidence         float64                `json:"confidence"`
}

// EntityNames returns the table names of the applicable entities in rank
// order.
func (r *EntityResult) EntityNames() []string {
	names := make([]string, 0, len(r.ApplicableEntities))
	for _, e := range r.ApplicableEntities {
		names = append(names, e.TableName)
	}
	return names
}

// EmptyEntityResult returns a failure result with all collections empty and
// zero confidence.
func EmptyEntityResult(errMsg string) *EntityResult {
	return &EntityResult{
		Success:            false,
		Error:              errMsg,
		ApplicableEntities: []EntityMatch{},
		Recommendations:    []EntityRecommendation{},
		Analysis:           "",
		Confidence:         0,
	}
}
