package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/logging"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
	"github.com/queryforge-ai/queryforge-engine/pkg/optimizer"
	"github.com/queryforge-ai/queryforge-engine/pkg/ranking"
	"github.com/queryforge-ai/queryforge-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// RankEntitiesRequest for POST /api/rank-entities
type RankEntitiesRequest struct {
	Query       string `json:"query"`
	Intent      string `json:"intent,omitempty"`
	MaxEntities int    `json:"max_entities,omitempty"`
}

// BusinessContextRequest for POST /api/business-context
type BusinessContextRequest struct {
	Query    string   `json:"query"`
	Entities []string `json:"entities"`
}

// ValidateRequest for POST /api/validate. Query and Entities are optional:
// when Query is set, a business context is assembled from the matched
// concepts and the business pass checks the SQL against it. Without them
// the SQL is validated context-free.
type ValidateRequest struct {
	SQL      string   `json:"sql"`
	Query    string   `json:"query,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// ValidateResponse flattens a validation report for the API surface.
type ValidateResponse struct {
	Valid       bool                      `json:"valid"`
	Syntax      models.SyntaxReport       `json:"syntax"`
	Business    models.BusinessReport     `json:"business"`
	Security    models.SecurityReport     `json:"security"`
	Performance []models.PerformanceIssue `json:"performance_issues"`
}

// OptimizeRequest for POST /api/optimize
type OptimizeRequest struct {
	SQL string `json:"sql"`
}

// QueryRequest for POST /api/query
type QueryRequest struct {
	Query  string `json:"query"`
	Intent string `json:"intent,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// EngineHandler exposes entity ranking, business context assembly, SQL
// validation, optimization, and the full query pipeline.
type EngineHandler struct {
	searcher   services.EntitySearcher
	ranker     *ranking.Ranker
	contextSvc services.BusinessContextService
	pipeline   services.PipelineService
	optimizer  *optimizer.Optimizer
	logger     *zap.Logger
}

// NewEngineHandler creates a new engine handler. searcher may be nil when
// no document store is configured; ranking then relies on the lexical pass.
func NewEngineHandler(
	searcher services.EntitySearcher,
	ranker *ranking.Ranker,
	contextSvc services.BusinessContextService,
	pipeline services.PipelineService,
	opt *optimizer.Optimizer,
	logger *zap.Logger,
) *EngineHandler {
	return &EngineHandler{
		searcher:   searcher,
		ranker:     ranker,
		contextSvc: contextSvc,
		pipeline:   pipeline,
		optimizer:  opt,
		logger:     logger,
	}
}

// RegisterRoutes registers the engine handler's routes on the given mux.
func (h *EngineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rank-entities", h.RankEntities)
	mux.HandleFunc("POST /api/business-context", h.BusinessContext)
	mux.HandleFunc("POST /api/validate", h.Validate)
	mux.HandleFunc("POST /api/optimize", h.Optimize)
	mux.HandleFunc("POST /api/query", h.Query)
}

// RankEntities handles POST /api/rank-entities
func (h *EngineHandler) RankEntities(w http.ResponseWriter, r *http.Request) {
	var req RankEntitiesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var candidates []models.EntityCandidate
	if h.searcher != nil {
		limit := req.MaxEntities
		if limit < 1 {
			limit = 5
		}
		found, err := h.searcher.SearchTables(r.Context(), req.Query, limit*2)
		if err != nil {
			h.logger.Warn("table search failed, ranking without candidates", zap.Error(err))
		} else {
			candidates = found
		}
	}

	result := h.ranker.Rank(r.Context(), req.Query, req.Intent, candidates, req.MaxEntities)

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// BusinessContext handles POST /api/business-context
func (h *EngineHandler) BusinessContext(w http.ResponseWriter, r *http.Request) {
	var req BusinessContextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "query is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	bc := h.contextSvc.Assemble(r.Context(), req.Query, req.Entities)

	if err := WriteJSON(w, http.StatusOK, bc); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Validate handles POST /api/validate
func (h *EngineHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.logger.Debug("validating SQL", zap.String("sql", logging.SanitizeQuery(req.SQL)))

	bc := models.EmptyBusinessContext()
	if strings.TrimSpace(req.Query) != "" {
		bc = h.contextSvc.Assemble(r.Context(), req.Query, req.Entities)
	}

	report := h.pipeline.ValidateSQL(r.Context(), req.SQL, bc)

	response := ValidateResponse{
		Valid:       report.IsValid(),
		Syntax:      report.Syntax,
		Business:    report.Business,
		Security:    report.Security,
		Performance: report.Performance,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Optimize handles POST /api/optimize
func (h *EngineHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.SQL) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "sql is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	report := h.optimizer.Analyze(req.SQL)

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Query handles POST /api/query
func (h *EngineHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response := h.pipeline.ProcessQuery(r.Context(), req.Query, req.Intent)
	if !response.Success {
		h.logger.Info("pipeline stopped",
			zap.String("step", response.Step),
			zap.String("query", logging.TruncateString(req.Query, 80)))
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
