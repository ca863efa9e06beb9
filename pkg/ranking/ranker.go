// Package ranking scores candidate tables against natural-language queries
// and produces ranked entity recognition results.
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/cache"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
	"github.com/queryforge-ai/queryforge-engine/pkg/similarity"
)

// Relevance weights. Semantic similarity dominates, purpose-text overlap
// and name matching refine.
const (
	weightSemantic = 0.5
	weightPurpose  = 0.3
	weightName     = 0.2
)

// relevanceCutoff drops entities that score at or below it.
const relevanceCutoff = 0.3

// Config holds the tunable knobs of the ranker. The direct-pass settings
// are heuristics, not contract: the ceiling keeps a lexical shortcut from
// ever outscoring the full pipeline in ambiguous cases.
type Config struct {
	MaxEntities             int     // default 5
	ResultCacheSize         int     // default 100
	ResultCacheEvict        int     // default 10
	DirectExitThreshold     float64 // direct pass short-circuits above this; default 0.55
	DirectConfidenceCeiling float64 // default 0.7
	DirectRelevanceCeiling  float64 // default 0.8
}

// DefaultConfig returns the default ranker configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntities:             5,
		ResultCacheSize:         100,
		ResultCacheEvict:        10,
		DirectExitThreshold:     0.55,
		DirectConfidenceCeiling: 0.7,
		DirectRelevanceCeiling:  0.8,
	}
}

// Ranker ranks candidate tables by relevance to a query. Results are
// cached per (query, intent) in a bounded insertion-order cache.
type Ranker struct {
	scorer  *similarity.Scorer
	direct  *directMatcher
	config  Config
	results *cache.Bounded[*models.EntityResult]
	logger  *zap.Logger
}

// NewRanker creates a ranker. jitter may be nil for the default random
// source; tests inject a deterministic one.
func NewRanker(scorer *similarity.Scorer, config Config, jitter JitterFunc, logger *zap.Logger) *Ranker {
	if config.MaxEntities < 1 {
		config.MaxEntities = 5
	}
	if config.ResultCacheSize < 1 {
		config.ResultCacheSize = 100
	}
	if config.ResultCacheEvict < 1 {
		config.ResultCacheEvict = 10
	}
	if config.DirectExitThreshold <= 0 {
		config.DirectExitThreshold = 0.55
	}
	if config.DirectConfidenceCeiling <= 0 {
		config.DirectConfidenceCeiling = 0.7
	}
	if config.DirectRelevanceCeiling <= 0 {
		config.DirectRelevanceCeiling = 0.8
	}
	return &Ranker{
		scorer:  scorer,
		direct:  newDirectMatcher(config, jitter),
		config:  config,
		results: cache.NewBounded[*models.EntityResult](config.ResultCacheSize, config.ResultCacheEvict),
		logger:  logger.Named("entity-ranker"),
	}
}

// Rank scores the candidates against the query and returns the applicable
// entities. intent may be empty, in which case the query itself is the
// intent. maxEntities <= 0 uses the configured default.
func (r *Ranker) Rank(ctx context.Context, query, intent string, candidates []models.EntityCandidate, maxEntities int) *models.EntityResult {
	if strings.TrimSpace(query) == "" {
		return models.EmptyEntityResult("query cannot be empty")
	}
	if maxEntities <= 0 {
		maxEntities = r.config.MaxEntities
	}

	effectiveIntent := intent
	if strings.TrimSpace(effectiveIntent) == "" {
		effectiveIntent = query
	}

	cacheKey := cache.Key(query, effectiveIntent, fmt.Sprintf("%d", maxEntities))
	if cached, ok := r.results.Get(cacheKey); ok {
		r.logger.Debug("using cached entity recognition result")
		return cached
	}

	// Cheap lexical pre-pass: on a confident direct hit, skip the full
	// scoring path entirely.
	if direct := r.direct.analyze(query, effectiveIntent); direct.Confidence > r.config.DirectExitThreshold {
		r.results.Put(cacheKey, direct)
		return direct
	}

	if len(candidates) == 0 {
		result := models.EmptyEntityResult(fmt.Sprintf("no relevant tables found for: %s", query))
		r.results.Put(cacheKey, result)
		return result
	}

	// Score at most twice the requested entities; the search backend
	// already ordered candidates by semantic score.
	limit := maxEntities * 2
	if len(candidates) < limit {
		limit = len(candidates)
	}

	analyzed := make([]models.EntityMatch, 0, limit)
	for _, c := range candidates[:limit] {
		factors := models.RelevanceFactors{
			SemanticSimilarity:   r.semanticScore(ctx, effectiveIntent, c),
			BusinessPurposeMatch: similarity.OverlapRatio(c.BusinessPurpose, effectiveIntent),
			TableNameRelevance:   nameRelevance(c.Name, effectiveIntent),
		}
		overall := round3(factors.SemanticSimilarity*weightSemantic +
			factors.BusinessPurposeMatch*weightPurpose +
			factors.TableNameRelevance*weightName)

		analyzed = append(analyzed, models.EntityMatch{
			TableName:       c.Name,
			BusinessPurpose: c.BusinessPurpose,
			RelevanceScore:  overall,
			Factors:         factors,
			Recommendation:  RelevanceLabel(overall),
		})
	}

	sortByRelevance(analyzed)

	applicable := make([]models.EntityMatch, 0, maxEntities)
	for _, e := range analyzed {
		if e.RelevanceScore > relevanceCutoff {
			applicable = append(applicable, e)
			if len(applicable) == maxEntities {
				break
			}
		}
	}

	result := &models.EntityResult{
		Success:            true,
		ApplicableEntities: applicable,
		Recommendations:    buildRecommendations(applicable),
		Analysis:           analysisSummary(applicable, effectiveIntent),
		Confidence:         confidence(applicable),
	}

	r.results.Put(cacheKey, result)
	return result
}

// semanticScore prefers the search backend's similarity score; without one
// it falls back to scoring the candidate's purpose text directly.
func (r *Ranker) semanticScore(ctx context.Context, intent string, c models.EntityCandidate) float64 {
	if c.SearchScore > 0 {
		if c.SearchScore > 1 {
			return 1.0
		}
		return c.SearchScore
	}
	return r.scorer.Similarity(ctx, intent, c.BusinessPurpose)
}

// nameRelevance scores how well a table name matches the intent text:
// 1.0 when the full name appears in the intent, 0.7 when any intent word
// is a substring of the name or vice versa, else 0.
func nameRelevance(tableName, intent string) float64 {
	if tableName == "" || intent == "" {
		return 0.0
	}

	name := strings.ToLower(tableName)
	intentLower := strings.ToLower(intent)

	if strings.Contains(intentLower, name) {
		return 1.0
	}
	for _, word := range strings.Fields(intentLower) {
		if strings.Contains(name, word) || strings.Contains(word, name) {
			return 0.7
		}
	}
	return 0.0
}

// confidence is the mean kept relevance scaled by 1.2, capped at 1.0, or
// exactly 0 when nothing was kept.
func confidence(kept []models.EntityMatch) float64 {
	if len(kept) == 0 {
		return 0.0
	}
	var sum float64
	for _, e := range kept {
		sum += e.RelevanceScore
	}
	return round3(math.Min(sum/float64(len(kept))*1.2, 1.0))
}

// RelevanceLabel maps a relevance score to its recommendation text.
func RelevanceLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "Highly relevant - strongly recommended"
	case score >= 0.6:
		return "Relevant - good match"
	case score >= 0.4:
		return "Moderately relevant"
	case score >= 0.2:
		return "Low relevance"
	default:
		return "Not relevant"
	}
}

func buildRecommendations(applicable []models.EntityMatch) []models.EntityRecommendation {
	recs := make([]models.EntityRecommendation, 0, len(applicable))
	for i, e := range applicable {
		recs = append(recs, models.EntityRecommendation{
			Priority:        i + 1,
			TableName:       e.TableName,
			RelevanceScore:  e.RelevanceScore,
			BusinessPurpose: e.BusinessPurpose,
			Recommendation:  e.Recommendation,
		})
	}
	return recs
}

func analysisSummary(applicable []models.EntityMatch, intent string) string {
	if len(applicable) == 0 {
		return fmt.Sprintf("No highly relevant entities found for: %q", intent)
	}
	var sum float64
	for _, e := range applicable {
		sum += e.RelevanceScore
	}
	avg := sum / float64(len(applicable))
	return fmt.Sprintf("Found %d applicable entities for %q. Top match: %q with average relevance: %.2f",
		len(applicable), intent, applicable[0].TableName, avg)
}

// sortByRelevance sorts descending by relevance, stable so equal scores
// keep candidate order.
func sortByRelevance(entities []models.EntityMatch) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].RelevanceScore > entities[j].RelevanceScore
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
