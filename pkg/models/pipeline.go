package models

// Pipeline step names surfaced in failure responses.
const (
	StepEntityRecognition = "entity_recognition"
	StepBusinessContext   = "business_context"
	StepSQLGeneration     = "sql_generation"
	StepValidation        = "validation"
)

// SQLGenerationResult is the outcome of the generation stage, including the
// fork-join validation that follows it.
type SQLGenerationResult struct {
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	GeneratedSQL string            `json:"generated_sql"`
	IsValid      bool              `json:"is_valid"`
	Validation   ValidationSummary `json:"validation"`
	Execution    *ExecutionResult  `json:"query_execution,omitempty"`
}

// ExecutionResult holds the sampled output of executing generated SQL
// against the datasource collaborator.
type ExecutionResult struct {
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	Columns      []string `json:"columns,omitempty"`
	ReturnedRows int      `json:"returned_rows"`
	Truncated    bool     `json:"truncated"`
}

// PipelineSummary records per-stage success bits for the final response.
type PipelineSummary struct {
	EntityRecognitionSuccess bool `json:"entity_recognition_success"`
	BusinessContextSuccess   bool `json:"business_context_success"`
	SQLGenerationSuccess     bool `json:"sql_generation_success"`
	SQLValidationSuccess     bool `json:"sql_validation_success"`
}

// PipelineResponse is the end-to-end result of processing one user query.
// On failure, Step names the stage that stopped the pipeline.
type PipelineResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Step    string `json:"step,omitempty"`

	Summary         PipelineSummary      `json:"pipeline_summary"`
	Entities        *EntityResult        `json:"entity_recognition,omitempty"`
	BusinessContext *BusinessContext     `json:"business_context,omitempty"`
	SQL             *SQLGenerationResult `json:"sql_generation,omitempty"`
}
