// Package similarity computes lexical and semantic overlap scores between
// text snippets. Scores are always in [0,1]; embedding failures degrade to
// 0.0 rather than propagating, so a flaky embedding backend can never abort
// a ranking pass.
package similarity

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/cache"
	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
	"github.com/queryforge-ai/queryforge-engine/pkg/logging"
)

// embeddingCacheSize bounds the per-process embedding micro-cache. Queries
// and concept descriptions repeat heavily within a session.
const (
	embeddingCacheSize  = 256
	embeddingCacheEvict = 32
)

// Scorer computes similarity between two texts. When an embedder is
// configured the primary path is cosine similarity over embeddings; without
// one (or on failure for the lexical-only entry points) it falls back to
// Jaccard word overlap.
type Scorer struct {
	embedder llm.Embedder
	cache    *cache.Bounded[[]float32]
	logger   *zap.Logger
}

// NewScorer creates a scorer. embedder may be nil, in which case Similarity
// always uses the lexical fallback.
func NewScorer(embedder llm.Embedder, logger *zap.Logger) *Scorer {
	return &Scorer{
		embedder: embedder,
		cache:    cache.NewBounded[[]float32](embeddingCacheSize, embeddingCacheEvict),
		logger:   logger.Named("similarity"),
	}
}

// Similarity returns the semantic similarity of a and b in [0,1].
// Any embedding failure is logged and degrades the score to 0.0.
func (s *Scorer) Similarity(ctx context.Context, a, b string) float64 {
	if s.embedder == nil {
		return Jaccard(a, b)
	}

	va, err := s.embed(ctx, a)
	if err != nil {
		s.logger.Warn("embedding failed, degrading similarity to 0",
			zap.String("error", logging.SanitizeError(err)))
		return 0.0
	}
	vb, err := s.embed(ctx, b)
	if err != nil {
		s.logger.Warn("embedding failed, degrading similarity to 0",
			zap.String("error", logging.SanitizeError(err)))
		return 0.0
	}

	return Cosine(va, vb)
}

func (s *Scorer) embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(text)
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	v, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, v)
	return v, nil
}

// Cosine returns the cosine similarity of two vectors clamped to [0,1].
// Mismatched or zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01(sim)
}

// Jaccard returns word-set overlap of a and b: |A∩B| / |A∪B| over
// lower-cased whitespace tokens. Returns 0 if either token set is empty.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// OverlapRatio returns |common words| / |reference words|: how much of the
// reference text's vocabulary appears in text. Used for purpose-vs-intent
// matching where the denominator is intentionally the intent, not the union.
func OverlapRatio(text, reference string) float64 {
	textSet := tokenSet(text)
	refSet := tokenSet(reference)
	if len(textSet) == 0 || len(refSet) == 0 {
		return 0.0
	}

	common := 0
	for w := range refSet {
		if _, ok := textSet[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(refSet))
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
