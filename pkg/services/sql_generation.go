package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// ErrNoSQLGenerated indicates the model response contained nothing that
// looks like SQL.
var ErrNoSQLGenerated = errors.New("no valid SQL generated")

// ErrGenerationDisabled indicates no generation backend is configured.
var ErrGenerationDisabled = errors.New("SQL generation is not configured")

// sqlGenerationSystemMessage pins the model to a single clean statement.
const sqlGenerationSystemMessage = "You are an expert SQL author. " +
	"Generate a single read-only SELECT statement that answers the request. " +
	"Respond with the SQL inside a ```sql code fence and nothing else."

const sqlGenerationTemperature = 0.1

// maxPromptInstructions caps how many business instructions go into the
// prompt; matches are similarity-ordered so the top ones carry the signal.
const maxPromptInstructions = 3

// SQLGenerationService turns a user query plus context into a SQL string.
type SQLGenerationService interface {
	Generate(ctx context.Context, userQuery string, bc *models.BusinessContext, entities []models.EntityMatch) (string, error)
}

type sqlGenerationService struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewSQLGenerationService creates a generation service backed by an LLM.
func NewSQLGenerationService(generator llm.Generator, logger *zap.Logger) SQLGenerationService {
	return &sqlGenerationService{
		generator: generator,
		logger:    logger.Named("sql-generation"),
	}
}

var _ SQLGenerationService = (*sqlGenerationService)(nil)

func (s *sqlGenerationService) Generate(ctx context.Context, userQuery string, bc *models.BusinessContext, entities []models.EntityMatch) (string, error) {
	if s.generator == nil {
		return "", ErrGenerationDisabled
	}

	prompt := buildQueryPrompt(userQuery, bc, entities)

	response, err := s.generator.Generate(ctx, prompt, sqlGenerationSystemMessage, sqlGenerationTemperature)
	if err != nil {
		return "", fmt.Errorf("SQL generation request failed: %w", err)
	}

	generated := ExtractSQL(response)
	if generated == "" {
		s.logger.Warn("model response contained no SQL",
			zap.String("model", s.generator.GetModel()),
			zap.Int("response_len", len(response)))
		return "", ErrNoSQLGenerated
	}

	s.logger.Debug("generated SQL",
		zap.String("model", s.generator.GetModel()),
		zap.Int("sql_len", len(generated)))

	return generated, nil
}

func buildQueryPrompt(userQuery string, bc *models.BusinessContext, entities []models.EntityMatch) string {
	var sb strings.Builder

	sb.WriteString("Generate SQL for the following request: ")
	sb.WriteString(userQuery)
	sb.WriteString("\n\nAvailable tables:\n")
	if len(entities) == 0 {
		sb.WriteString("No schema information available\n")
	}
	for _, e := range entities {
		sb.WriteString(e.TableName)
		if e.BusinessPurpose != "" {
			sb.WriteString(": ")
			sb.WriteString(e.BusinessPurpose)
		}
		sb.WriteString("\n")
	}

	if bc != nil && len(bc.BusinessInstructions) > 0 {
		sb.WriteString("\nBusiness context:\n")
		limit := len(bc.BusinessInstructions)
		if limit > maxPromptInstructions {
			limit = maxPromptInstructions
		}
		for _, instruction := range bc.BusinessInstructions[:limit] {
			sb.WriteString("- ")
			sb.WriteString(instruction.Instructions)
			sb.WriteString("\n")
		}
	}

	if bc != nil && len(bc.RelevantExamples) > 0 {
		sb.WriteString("\nSimilar past queries:\n")
		for _, example := range bc.RelevantExamples {
			sb.WriteString("- ")
			sb.WriteString(example.Example.Query)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nGenerate clean, efficient SQL that answers the request.")
	return sb.String()
}

var sqlFencePattern = regexp.MustCompile("(?s)```sql\\s*(.*?)\\s*```")

// sqlLineKeywords identify SQL-looking lines for the fallback extraction.
var sqlLineKeywords = []string{"SELECT", "FROM", "WHERE", "JOIN", "GROUP", "ORDER", "HAVING"}

// ExtractSQL pulls the SQL statement out of a model response: a ```sql
// fence wins; otherwise lines containing SQL keywords are stitched
// together as a best-effort fallback.
func ExtractSQL(response string) string {
	if match := sqlFencePattern.FindStringSubmatch(response); match != nil {
		return strings.TrimSpace(match[1])
	}

	var sqlLines []string
	for _, line := range strings.Split(response, "\n") {
		upper := strings.ToUpper(line)
		for _, keyword := range sqlLineKeywords {
			if strings.Contains(upper, keyword) {
				sqlLines = append(sqlLines, strings.TrimSpace(line))
				break
			}
		}
	}

	return strings.Join(sqlLines, "\n")
}
