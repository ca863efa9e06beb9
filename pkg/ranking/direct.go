package ranking

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// JitterFunc returns a small random offset applied to direct-match scores
// so repeated lexical hits never produce identical perfect scores.
type JitterFunc func() float64

func defaultJitter() float64 {
	return rand.Float64()*0.2 - 0.1
}

// domainStems is the fixed vocabulary of the pre-pass, in scan order.
// Each stem pairs with one extra table alias that plain pluralization
// does not cover.
var domainStems = []struct {
	stem  string
	alias string
}{
	{"customer", "client"},
	{"account", "banking"},
	{"transaction", "payment"},
	{"employee", "staff"},
	{"branch", "location"},
	{"loan", "credit"},
	{"card", "credit_card"},
}

// directMatcher is a lexical pre-pass over a fixed domain vocabulary. It
// runs before any search or embedding call and short-circuits the full
// ranking path when its confidence clears the configured threshold.
type directMatcher struct {
	stems  []string
	tables map[string][]string
	config Config
	jitter JitterFunc
}

func newDirectMatcher(config Config, jitter JitterFunc) *directMatcher {
	if jitter == nil {
		jitter = defaultJitter
	}
	stems := make([]string, 0, len(domainStems))
	tables := make(map[string][]string, len(domainStems))
	for _, entry := range domainStems {
		stems = append(stems, entry.stem)
		tables[entry.stem] = []string{inflection.Plural(entry.stem), entry.stem, entry.alias}
	}
	return &directMatcher{stems: stems, tables: tables, config: config, jitter: jitter}
}

// analyze scores the query and intent against the domain vocabulary.
// Hits in the query weigh 0.4, hits in the intent 0.2, plus jitter.
// Relevance is capped below a perfect score and confidence below the
// early-exit comfort zone so the shortcut only fires on unambiguous input.
func (d *directMatcher) analyze(query, intent string) *models.EntityResult {
	queryLower := strings.ToLower(query)
	intentLower := strings.ToLower(intent)

	var entities []models.EntityMatch
	var totalScore float64

	for _, stem := range d.stems {
		inQuery := strings.Contains(queryLower, stem)
		inIntent := strings.Contains(intentLower, stem)
		if !inQuery && !inIntent {
			continue
		}
		for _, table := range d.tables[stem] {
			var relevance float64
			if inQuery {
				relevance += 0.4
			}
			if inIntent {
				relevance += 0.2
			}
			relevance += d.jitter()
			relevance = math.Min(relevance, d.config.DirectRelevanceCeiling)

			if relevance > relevanceCutoff {
				entities = append(entities, models.EntityMatch{
					TableName:       table,
					BusinessPurpose: fmt.Sprintf("Contains %s related data", stem),
					RelevanceScore:  round3(relevance),
					Recommendation:  fmt.Sprintf("Highly relevant for %s queries", stem),
				})
				totalScore += relevance
			}
		}
	}

	conf := totalScore / math.Max(float64(len(entities)), 1)
	conf = math.Min(conf, d.config.DirectConfidenceCeiling)

	return &models.EntityResult{
		Success:            true,
		ApplicableEntities: entities,
		Recommendations:    []models.EntityRecommendation{},
		Analysis:           fmt.Sprintf("Direct analysis found %d relevant entities", len(entities)),
		Confidence:         round3(conf),
	}
}
