// Package services wires the engine's components into the operations the
// public surface exposes: entity recognition, business context assembly,
// SQL generation, and the validation pipeline.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/concepts"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// BusinessContextService assembles the business context for a query over
// a set of applicable entities.
type BusinessContextService interface {
	// Assemble matches concepts targeting the entities, ranks their
	// examples, and validates their required joins. Never returns a
	// partial structure: failures come back as a failed context with all
	// collections defaulted.
	Assemble(ctx context.Context, query string, applicableEntities []string) *models.BusinessContext
}

type businessContextService struct {
	loader      *concepts.Loader
	matcher     *concepts.Matcher
	threshold   float64
	maxExamples int
	logger      *zap.Logger
}

// NewBusinessContextService creates the assembler. threshold <= 0 and
// maxExamples <= 0 fall back to the matcher defaults.
func NewBusinessContextService(loader *concepts.Loader, matcher *concepts.Matcher, threshold float64, maxExamples int, logger *zap.Logger) BusinessContextService {
	if threshold <= 0 {
		threshold = concepts.DefaultMatchThreshold
	}
	if maxExamples <= 0 {
		maxExamples = concepts.DefaultMaxExamples
	}
	return &businessContextService{
		loader:      loader,
		matcher:     matcher,
		threshold:   threshold,
		maxExamples: maxExamples,
		logger:      logger.Named("business-context"),
	}
}

var _ BusinessContextService = (*businessContextService)(nil)

func (s *businessContextService) Assemble(ctx context.Context, query string, applicableEntities []string) (result *models.BusinessContext) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("business context assembly panicked", zap.Any("panic", r))
			result = models.FailedBusinessContext(fmt.Sprintf("business context assembly failed: %v", r))
		}
	}()

	if len(applicableEntities) == 0 {
		return models.EmptyBusinessContext()
	}

	loaded := s.loader.ForEntities(applicableEntities)
	matches := s.matcher.Match(ctx, query, loaded, s.threshold)

	bc := models.EmptyBusinessContext()
	coveredEntities := make(map[string]struct{})
	available := toSet(applicableEntities)

	for _, match := range matches {
		concept := match.Concept

		bc.MatchedConcepts = append(bc.MatchedConcepts, models.MatchedConcept{
			Name:           concept.Name,
			Description:    concept.Description,
			TargetEntities: concept.Target,
			RequiredJoins:  concept.RequiredJoins,
			Similarity:     match.Similarity,
		})

		bc.BusinessInstructions = append(bc.BusinessInstructions, models.BusinessInstruction{
			Concept:      concept.Name,
			Instructions: concept.Instructions,
			Similarity:   match.Similarity,
		})

		bc.RelevantExamples = append(bc.RelevantExamples,
			s.matcher.RankExamples(ctx, concept, query, s.maxExamples)...)

		bc.JoinValidation[concept.Name] = concepts.ValidateJoins(applicableEntities, concept.RequiredJoins)

		for _, target := range concept.Target {
			if _, ok := available[target]; ok {
				coveredEntities[target] = struct{}{}
			}
		}
	}

	bc.EntityCoverage = models.EntityCoverage{
		TotalEntities:        len(applicableEntities),
		EntitiesWithConcepts: len(coveredEntities),
	}

	s.logger.Debug("assembled business context",
		zap.Int("concepts_considered", len(loaded)),
		zap.Int("concepts_matched", len(matches)),
		zap.Int("entities", len(applicableEntities)))

	return bc
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
