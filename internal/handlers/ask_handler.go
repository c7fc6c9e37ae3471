package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/internal/llm"
	"agriclimate-platform/internal/services"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

// Stable error code strings carried in ErrorResponse.Error. Clients key off
// these, not the human-readable message.
const (
	errCodeInvalidRequest     = "invalid_request"
	errCodeDataUnavailable    = "data_unavailable"
	errCodeNotConfigured      = "not_configured"
	errCodeBackendUnavailable = "backend_unavailable"
	errCodeInternal           = "internal_error"
)

// AskHandler handles the question-answering API endpoints
type AskHandler struct {
	answers     *services.AnswerService
	integration *services.IntegrationService
	store       *dataset.Store
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewAskHandler creates a new question API handler
func NewAskHandler(
	answers *services.AnswerService,
	integration *services.IntegrationService,
	store *dataset.Store,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AskHandler {
	return &AskHandler{
		answers:     answers,
		integration: integration,
		store:       store,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// AskRequest is the question request body
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the synthesized answer plus full traceability: the
// normalized data result, the sanitized generated query, and the execution
// error when the query failed at runtime.
type AskResponse struct {
	Answer         string  `json:"answer"`
	DataResult     string  `json:"data_result"`
	GeneratedQuery string  `json:"generated_query"`
	ExecutionError *string `json:"execution_error"`
}

// ReloadResponse summarizes one reload run
type ReloadResponse struct {
	MergedRows      int      `json:"merged_rows"`
	MergedColumns   []string `json:"merged_columns"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// SchemaResponse describes the current master table snapshot
type SchemaResponse struct {
	Columns  []string  `json:"columns"`
	RowCount int       `json:"row_count"`
	BuiltAt  time.Time `json:"built_at"`
	Sources  []string  `json:"sources"`
}

// Ask handles POST /api/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/ask").Observe(duration.Seconds())
	}()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, errCodeInvalidRequest, "invalid request: body must be a JSON object", http.StatusBadRequest)
		return
	}

	if req.Question == "" {
		h.sendError(w, r, errCodeInvalidRequest, "invalid request: 'question' field is missing or empty", http.StatusBadRequest)
		return
	}

	answer, err := h.answers.Ask(ctx, req.Question)
	if err != nil {
		h.sendAskError(w, r, err)
		return
	}

	response := AskResponse{
		Answer:         answer.Text,
		DataResult:     answer.DataResult,
		GeneratedQuery: answer.Query,
		ExecutionError: answer.ExecError,
	}

	h.metrics.RecordAPIRequest("/api/ask", "POST", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// sendAskError maps orchestrator failures onto distinct error codes
func (h *AskHandler) sendAskError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, services.ErrDataUnavailable):
		h.metrics.RecordAPIError(errCodeDataUnavailable, "/api/ask")
		h.sendError(w, r, errCodeDataUnavailable,
			"the master dataset is not loaded; check source files and reload", http.StatusServiceUnavailable)

	case errors.Is(err, services.ErrNotConfigured):
		h.metrics.RecordAPIError(errCodeNotConfigured, "/api/ask")
		h.sendError(w, r, errCodeNotConfigured,
			"server-side configuration error: the model backend API key is not set", http.StatusInternalServerError)

	default:
		var backendErr *llm.BackendError
		if errors.As(err, &backendErr) {
			h.logger.Error(ctx, "[API_ASK_BACKEND_ERROR] Model backend failed", logging.Fields{}, err)
			h.metrics.RecordAPIError(errCodeBackendUnavailable, "/api/ask")
			h.sendError(w, r, errCodeBackendUnavailable,
				fmt.Sprintf("model backend unavailable: %s", backendErr.Message), http.StatusBadGateway)
			return
		}

		h.logger.Error(ctx, "[API_ASK_ERROR] Failed to answer question", logging.Fields{}, err)
		h.metrics.RecordAPIError(errCodeInternal, "/api/ask")
		h.sendError(w, r, errCodeInternal, "failed to answer question", http.StatusInternalServerError)
	}
}

// Reload handles POST /api/reload
func (h *AskHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/reload").Observe(duration.Seconds())
	}()

	result, err := h.integration.Rebuild(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_RELOAD_ERROR] Reload failed", logging.Fields{}, err)
		h.metrics.RecordAPIError(errCodeDataUnavailable, "/api/reload")
		h.sendError(w, r, errCodeDataUnavailable,
			fmt.Sprintf("reload failed: %v", err), http.StatusInternalServerError)
		return
	}

	response := ReloadResponse{
		MergedRows:      result.MergedRows,
		MergedColumns:   result.MergedColumns,
		DurationSeconds: result.Duration.Seconds(),
	}

	h.metrics.RecordAPIRequest("/api/reload", "POST", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// Schema handles GET /api/schema
func (h *AskHandler) Schema(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Current()
	if snapshot == nil {
		h.sendError(w, r, errCodeDataUnavailable,
			"the master dataset is not loaded", http.StatusServiceUnavailable)
		return
	}

	response := SchemaResponse{
		Columns:  snapshot.Columns,
		RowCount: snapshot.RowCount,
		BuiltAt:  snapshot.BuiltAt,
		Sources:  snapshot.Sources,
	}

	h.metrics.RecordAPIRequest("/api/schema", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *AskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":         "healthy",
		"data_available": h.store.Available(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *AskHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response with a stable error code
func (h *AskHandler) sendError(w http.ResponseWriter, r *http.Request, errorCode, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   errorCode,
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware attaches a correlation ID to every request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

// RegisterRoutes registers all question API routes
func (h *AskHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/ask", h.Ask).Methods("POST")
	router.HandleFunc("/api/reload", h.Reload).Methods("POST")
	router.HandleFunc("/api/schema", h.Schema).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/docs", SwaggerUI).Methods("GET")
}
