package services

import (
	"context"
	"errors"
	"time"

	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/internal/llm"
	"agriclimate-platform/internal/prompts"
	"agriclimate-platform/internal/query"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

// ErrDataUnavailable is returned while no master table snapshot exists. It is
// stable across requests until a reload succeeds.
var ErrDataUnavailable = errors.New("master table is not available")

// ErrNotConfigured is returned when the model backend API key is unset. It is
// checked before any backend call is attempted.
var ErrNotConfigured = errors.New("model backend API key is not configured")

// Answer is the full response unit of one question request
type Answer struct {
	Text       string
	DataResult string
	Query      string
	ExecError  *string
}

// AnswerService orchestrates one question request: generate query code via
// the model backend, execute it against a private copy of the master table,
// and synthesize a natural-language answer from the result. Each request is a
// strictly sequential state machine with at most one outstanding backend call
// at a time.
type AnswerService struct {
	store      *dataset.Store
	backend    llm.Client
	executor   *query.Executor
	sources    []string
	configured bool
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewAnswerService creates the question-answering orchestrator. sources are
// the citation identifiers of the three raw inputs; configured reports
// whether backend credentials are present.
func NewAnswerService(
	store *dataset.Store,
	backend llm.Client,
	executor *query.Executor,
	sources []string,
	configured bool,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AnswerService {
	return &AnswerService{
		store:      store,
		backend:    backend,
		executor:   executor,
		sources:    sources,
		configured: configured,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Ask answers one natural-language question. A runtime failure of the
// generated query is an expected outcome: it produces an Answer carrying the
// execution error and an explanatory text, not an error return. Error returns
// are reserved for preconditions and backend failures.
func (s *AnswerService) Ask(ctx context.Context, question string) (*Answer, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return nil, ErrDataUnavailable
	}

	if !s.configured {
		return nil, ErrNotConfigured
	}

	s.logger.Info(ctx, "[ASK_START] Handling question", logging.Fields{
		"question_len": len(question),
	})

	generated, err := s.generate(ctx, "code_generation",
		prompts.CodeGeneration(query.TableName, snapshot.ColumnsJSON()), question)
	if err != nil {
		return nil, err
	}

	sqlText := query.StripFences(generated)

	s.logger.Debug(ctx, "[ASK_QUERY_GENERATED] Generated query", logging.Fields{
		"query": sqlText,
	})

	result, execErr := s.executor.Execute(ctx, snapshot, sqlText)

	var queryErr *query.ExecutionError
	if execErr != nil && !errors.As(execErr, &queryErr) {
		// Infrastructure fault, not a bad generated query.
		return nil, execErr
	}

	if queryErr != nil {
		return s.explain(ctx, question, sqlText, queryErr)
	}

	normalized := result.Normalize()

	answerText, err := s.generate(ctx, "synthesis",
		prompts.Synthesis(question, normalized, s.sources), question)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[ASK_COMPLETE] Question answered", logging.Fields{
		"result_rows":      len(result.Rows),
		"result_truncated": result.Truncated,
	})

	return &Answer{
		Text:       answerText,
		DataResult: normalized,
		Query:      sqlText,
	}, nil
}

// explain handles the failed-execution path: the backend is asked for a
// user-facing explanation and a rephrasing suggestion, and the execution
// error is surfaced in the answer instead of failing the request.
func (s *AnswerService) explain(ctx context.Context, question, sqlText string, queryErr *query.ExecutionError) (*Answer, error) {
	explanation, err := s.generate(ctx, "explanation",
		prompts.Explanation(question, sqlText, queryErr.Message), question)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[ASK_EXPLAINED] Question answered with execution-error explanation", logging.Fields{
		"exec_error": queryErr.Message,
	})

	message := queryErr.Message
	return &Answer{
		Text:      explanation,
		Query:     sqlText,
		ExecError: &message,
	}, nil
}

// generate performs one instrumented model backend call
func (s *AnswerService) generate(ctx context.Context, operation, systemInstruction, userPrompt string) (string, error) {
	startTime := time.Now()

	text, err := s.backend.Generate(ctx, systemInstruction, userPrompt)
	if err != nil {
		s.metrics.RecordBackendCall(operation, "failure", time.Since(startTime))
		s.metrics.RecordBackendFailure(operation)
		return "", err
	}

	s.metrics.RecordBackendCall(operation, "success", time.Since(startTime))
	return text, nil
}
