package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/cache"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
	"github.com/queryforge-ai/queryforge-engine/pkg/ranking"
	sqlval "github.com/queryforge-ai/queryforge-engine/pkg/sql"
	"github.com/queryforge-ai/queryforge-engine/pkg/workpool"
)

// EntitySearcher serves semantic search over the indexed table
// documentation. Implemented by the documentation store.
type EntitySearcher interface {
	SearchTables(ctx context.Context, query string, limit int) ([]models.EntityCandidate, error)
}

// QueryExecutor runs generated SQL against the customer datasource and
// returns a sampled result. Optional: a nil executor skips the execution
// branch of the validation fan-out.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string, maxRows int) (*models.ExecutionResult, error)
}

// PipelineConfig holds the orchestrator's tunables.
type PipelineConfig struct {
	MaxEntities          int // entities surfaced per query (default 5)
	MaxRows              int // row cap for the execution branch (default 100)
	ValidationCacheSize  int // default 50
	ValidationCacheEvict int // default 10
}

// DefaultPipelineConfig returns the default orchestrator configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxEntities:          5,
		MaxRows:              100,
		ValidationCacheSize:  50,
		ValidationCacheEvict: 10,
	}
}

// PipelineService is the end-to-end orchestrator: entity recognition,
// business context, SQL generation, then the validation fan-out. Each
// stage must succeed before the next runs; the first failure terminates
// the pipeline with the failing step's name.
type PipelineService interface {
	ProcessQuery(ctx context.Context, userQuery, userIntent string) *models.PipelineResponse

	// ValidateSQL runs the validation fan-out over an externally supplied
	// SQL string, using the cache keyed by normalized SQL plus context
	// fingerprint.
	ValidateSQL(ctx context.Context, sqlText string, bc *models.BusinessContext) *models.ValidationReport
}

type pipelineService struct {
	searcher    EntitySearcher
	ranker      *ranking.Ranker
	contextSvc  BusinessContextService
	generator   SQLGenerationService
	executor    QueryExecutor
	pool        *workpool.Pool
	config      PipelineConfig
	validations *cache.Bounded[*models.ValidationReport]
	logger      *zap.Logger
}

// NewPipelineService wires the orchestrator. searcher may be nil when no
// document store is configured; executor may be nil when no datasource is
// configured.
func NewPipelineService(
	searcher EntitySearcher,
	ranker *ranking.Ranker,
	contextSvc BusinessContextService,
	generator SQLGenerationService,
	executor QueryExecutor,
	pool *workpool.Pool,
	config PipelineConfig,
	logger *zap.Logger,
) PipelineService {
	if config.MaxEntities < 1 {
		config.MaxEntities = 5
	}
	if config.MaxRows < 1 {
		config.MaxRows = 100
	}
	if config.ValidationCacheSize < 1 {
		config.ValidationCacheSize = 50
	}
	if config.ValidationCacheEvict < 1 {
		config.ValidationCacheEvict = 10
	}
	return &pipelineService{
		searcher:    searcher,
		ranker:      ranker,
		contextSvc:  contextSvc,
		generator:   generator,
		executor:    executor,
		pool:        pool,
		config:      config,
		validations: cache.NewBounded[*models.ValidationReport](config.ValidationCacheSize, config.ValidationCacheEvict),
		logger:      logger.Named("pipeline"),
	}
}

var _ PipelineService = (*pipelineService)(nil)

func (p *pipelineService) ProcessQuery(ctx context.Context, userQuery, userIntent string) *models.PipelineResponse {
	response := &models.PipelineResponse{}

	// Stage 1: entity recognition.
	entityResult := p.recognizeEntities(ctx, userQuery, userIntent)
	response.Entities = entityResult
	response.Summary.EntityRecognitionSuccess = entityResult.Success
	if !entityResult.Success {
		return failResponse(response, entityResult.Error, models.StepEntityRecognition)
	}

	// Stage 2: business context.
	bc := p.contextSvc.Assemble(ctx, userQuery, entityResult.EntityNames())
	response.BusinessContext = bc
	response.Summary.BusinessContextSuccess = bc.Success
	if !bc.Success {
		return failResponse(response, bc.Error, models.StepBusinessContext)
	}

	// Stage 3: generation.
	generated, err := p.generator.Generate(ctx, userQuery, bc, entityResult.ApplicableEntities)
	if err != nil {
		response.SQL = &models.SQLGenerationResult{Success: false, Error: err.Error()}
		return failResponse(response, err.Error(), models.StepSQLGeneration)
	}
	response.Summary.SQLGenerationSuccess = true

	// Stage 4: validation fan-out.
	sqlResult := p.validateGenerated(ctx, generated, bc)
	response.SQL = sqlResult
	response.Summary.SQLValidationSuccess = sqlResult.IsValid

	response.Success = true
	p.logger.Info("pipeline completed",
		zap.Int("entities", len(entityResult.ApplicableEntities)),
		zap.Int("concepts", len(bc.MatchedConcepts)),
		zap.Bool("sql_valid", sqlResult.IsValid))
	return response
}

func (p *pipelineService) recognizeEntities(ctx context.Context, userQuery, userIntent string) *models.EntityResult {
	var candidates []models.EntityCandidate
	if p.searcher != nil {
		found, err := p.searcher.SearchTables(ctx, userQuery, p.config.MaxEntities*2)
		if err != nil {
			// The ranker's direct pass can still answer without candidates.
			p.logger.Warn("table search failed, ranking without candidates", zap.Error(err))
		} else {
			candidates = found
		}
	}
	return p.ranker.Rank(ctx, userQuery, userIntent, candidates, p.config.MaxEntities)
}

func (p *pipelineService) validateGenerated(ctx context.Context, sqlText string, bc *models.BusinessContext) *models.SQLGenerationResult {
	report, execution := p.validate(ctx, sqlText, bc, true)

	return &models.SQLGenerationResult{
		Success:      true,
		GeneratedSQL: sqlText,
		IsValid:      report.IsValid(),
		Validation:   report.Summary(),
		Execution:    execution,
	}
}

// ValidateSQL implements the public validation contract. Execution is not
// part of this surface; only the four analysis passes run.
func (p *pipelineService) ValidateSQL(ctx context.Context, sqlText string, bc *models.BusinessContext) *models.ValidationReport {
	report, _ := p.validate(ctx, sqlText, bc, false)
	return report
}

// validate runs the fork-join fan-out, consulting the bounded cache
// first. Cached hits skip re-validation and the execution branch.
func (p *pipelineService) validate(ctx context.Context, sqlText string, bc *models.BusinessContext, execute bool) (*models.ValidationReport, *models.ExecutionResult) {
	cacheKey := cache.Key(normalizeSQL(sqlText), contextFingerprint(bc))
	if cached, ok := p.validations.Get(cacheKey); ok {
		p.logger.Debug("using cached validation report")
		return cached, nil
	}

	branches := []workpool.Branch[any]{
		{Name: "syntax", Execute: func(context.Context) (any, error) {
			return sqlval.ValidateSyntax(sqlText), nil
		}},
		{Name: "business", Execute: func(context.Context) (any, error) {
			return sqlval.ValidateBusiness(sqlText, bc), nil
		}},
		{Name: "security", Execute: func(context.Context) (any, error) {
			return sqlval.ValidateSecurity(sqlText), nil
		}},
		{Name: "performance", Execute: func(context.Context) (any, error) {
			return sqlval.CheckPerformance(sqlText), nil
		}},
	}
	if execute && p.executor != nil {
		branches = append(branches, workpool.Branch[any]{
			Name: "execution",
			Execute: func(ctx context.Context) (any, error) {
				return p.executor.Execute(ctx, sqlText, p.config.MaxRows)
			},
		})
	}

	results := workpool.Join(ctx, p.pool, branches)

	report := &models.ValidationReport{
		Syntax:      models.SyntaxReport{Errors: []string{}, Warnings: []string{}},
		Security:    models.SecurityReport{Risks: []string{}, ForbiddenOperations: []string{}},
		Business:    models.BusinessReport{Issues: []string{}, Warnings: []string{}, ConceptCompliance: map[string]models.ConceptCompliance{}},
		Performance: []models.PerformanceIssue{},
	}
	var execution *models.ExecutionResult

	// Results arrive in submission order: syntax, business, security,
	// performance, execution.
	branchFailed := false
	for _, result := range results {
		if result.Err != nil {
			p.logger.Error("validation branch failed",
				zap.String("branch", result.Name), zap.Error(result.Err))
			p.recordBranchFailure(report, result.Name, result.Err)
			branchFailed = true
			continue
		}
		switch result.Name {
		case "syntax":
			report.Syntax = result.Value.(models.SyntaxReport)
		case "business":
			report.Business = result.Value.(models.BusinessReport)
		case "security":
			report.Security = result.Value.(models.SecurityReport)
		case "performance":
			report.Performance = result.Value.([]models.PerformanceIssue)
		case "execution":
			execution = result.Value.(*models.ExecutionResult)
		}
	}

	// A report assembled from failed branches reflects the caller's fate
	// (a cancelled context, usually), not the SQL. Caching it would serve
	// that failure to later healthy callers of the same key.
	if !branchFailed {
		p.validations.Put(cacheKey, report)
	}
	return report, execution
}

// recordBranchFailure folds a failed branch into the report as that
// pass's failure, so one branch never hides the others' findings.
func (p *pipelineService) recordBranchFailure(report *models.ValidationReport, branch string, err error) {
	switch branch {
	case "syntax":
		report.Syntax = models.SyntaxReport{Valid: false, Errors: []string{err.Error()}, Warnings: []string{}}
	case "business":
		report.Business = models.BusinessReport{Valid: false, Issues: []string{err.Error()}, Warnings: []string{}, ConceptCompliance: map[string]models.ConceptCompliance{}}
	case "security":
		report.Security = models.SecurityReport{Valid: false, Risks: []string{err.Error()}, ForbiddenOperations: []string{}}
	case "execution":
		// Execution failures are reported, never gate validity.
	}
}

// normalizeSQL strips the trailing semicolon and whitespace so cache keys
// are insensitive to cosmetic differences. Multi-statement input keys on
// its raw form; the syntax pass rejects it anyway.
func normalizeSQL(sqlText string) string {
	normalized, err := sqlval.Normalize(sqlText)
	if err != nil || normalized == "" {
		return sqlText
	}
	return normalized
}

// contextFingerprint produces a stable content hash input for a business
// context. Only the matched concepts participate: they are what the
// business pass consumes.
func contextFingerprint(bc *models.BusinessContext) string {
	if bc == nil || len(bc.MatchedConcepts) == 0 {
		return "no-context"
	}
	encoded, err := json.Marshal(bc.MatchedConcepts)
	if err != nil {
		return "no-context"
	}
	return string(encoded)
}

func failResponse(response *models.PipelineResponse, errMsg, step string) *models.PipelineResponse {
	response.Success = false
	response.Error = errMsg
	response.Step = step
	return response
}
