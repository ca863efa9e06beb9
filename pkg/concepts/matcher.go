package concepts

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
	"github.com/queryforge-ai/queryforge-engine/pkg/similarity"
)

// DefaultMatchThreshold is the minimum similarity for a concept to count
// as matched.
const DefaultMatchThreshold = 0.5

// DefaultMaxExamples caps how many examples are returned per concept.
const DefaultMaxExamples = 3

// Matcher ranks concepts and their examples against user queries.
type Matcher struct {
	scorer *similarity.Scorer
	logger *zap.Logger
}

// NewMatcher creates a matcher using the given scorer.
func NewMatcher(scorer *similarity.Scorer, logger *zap.Logger) *Matcher {
	return &Matcher{
		scorer: scorer,
		logger: logger.Named("concept-matcher"),
	}
}

// Match scores each concept's description against the query and returns
// matches with similarity >= threshold, sorted descending. The sort is
// stable, so ties keep catalog order.
func (m *Matcher) Match(ctx context.Context, query string, concepts []*models.BusinessConcept, threshold float64) []models.ConceptMatch {
	var matches []models.ConceptMatch
	for _, c := range concepts {
		sim := m.scorer.Similarity(ctx, query, c.Description)
		if sim >= threshold {
			matches = append(matches, models.ConceptMatch{Concept: c, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}

// RankExamples scores a concept's examples against the query and returns
// the top maxExamples, sorted descending by similarity.
func (m *Matcher) RankExamples(ctx context.Context, concept *models.BusinessConcept, query string, maxExamples int) []models.RankedExample {
	if len(concept.Examples) == 0 {
		return nil
	}
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}

	ranked := make([]models.RankedExample, 0, len(concept.Examples))
	for _, ex := range concept.Examples {
		sim := m.scorer.Similarity(ctx, query, ex.Query)
		ranked = append(ranked, models.RankedExample{
			Example:     ex,
			Similarity:  sim,
			ConceptName: concept.Name,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if len(ranked) > maxExamples {
		ranked = ranked[:maxExamples]
	}
	return ranked
}
