// Package httpapi provides the REST HTTP adapter for the scheduling service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tautline/taut/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	scheduling common.SchedulingService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from the scheduling service.
func NewHandler(scheduling common.SchedulingService) *Handler {
	return &Handler{
		scheduling: scheduling,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch {
	case path == "projects":
		switch r.Method {
		case http.MethodGet:
			h.handleListProjects(w, r)
		case http.MethodPost:
			h.handleCreateProject(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	default:
		projectID, rest, ok := splitProjectPath(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch rest {
		case "":
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, http.MethodGet)
				return
			}
			h.handleProject(w, r, projectID)
		case "activities":
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, http.MethodPost)
				return
			}
			h.handleAddActivity(w, r, projectID)
		case "analysis":
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, http.MethodPost)
				return
			}
			h.handleRunAnalysis(w, r, projectID)
		case "critical-path":
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, http.MethodGet)
				return
			}
			h.handleCriticalPath(w, r, projectID)
		case "statistics":
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, http.MethodGet)
				return
			}
			h.handleStatistics(w, r, projectID)
		default:
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
		}
	}
}

// requireScheduling fails closed with 503 when the scheduling service is missing.
func (h *Handler) requireScheduling(w http.ResponseWriter) bool {
	if h == nil || h.scheduling == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "scheduling service is not configured",
		})
		return false
	}
	return true
}

// handleListProjects serves GET `/projects`.
func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduling(w) {
		return
	}
	projects, err := h.scheduling.ListProjects(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
	})
}

// handleCreateProject serves POST `/projects`.
func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduling(w) {
		return
	}

	var req common.CreateProjectRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	project, err := h.scheduling.CreateProject(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleProject serves GET `/projects/{id}`.
func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request, projectID string) {
	if !h.requireScheduling(w) {
		return
	}
	project, err := h.scheduling.Project(r.Context(), projectID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleAddActivity serves POST `/projects/{id}/activities`.
func (h *Handler) handleAddActivity(w http.ResponseWriter, r *http.Request, projectID string) {
	if !h.requireScheduling(w) {
		return
	}

	var req common.AddActivityRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.ProjectID = projectID
	activity, err := h.scheduling.AddActivity(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

// handleRunAnalysis serves POST `/projects/{id}/analysis`.
func (h *Handler) handleRunAnalysis(w http.ResponseWriter, r *http.Request, projectID string) {
	if !h.requireScheduling(w) {
		return
	}
	schedule, err := h.scheduling.RunAnalysis(r.Context(), projectID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// handleCriticalPath serves GET `/projects/{id}/critical-path`.
func (h *Handler) handleCriticalPath(w http.ResponseWriter, r *http.Request, projectID string) {
	if !h.requireScheduling(w) {
		return
	}
	path, err := h.scheduling.CriticalPath(r.Context(), projectID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

// handleStatistics serves GET `/projects/{id}/statistics`.
func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request, projectID string) {
	if !h.requireScheduling(w) {
		return
	}

	var target float64
	if raw := strings.TrimSpace(r.URL.Query().Get("target")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: fmt.Sprintf("target %q is not a number", raw),
			})
			return
		}
		target = parsed
	}
	stats, err := h.scheduling.Statistics(r.Context(), common.StatisticsRequest{
		ProjectID: projectID,
		Target:    target,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// splitProjectPath parses `projects/{id}` and `projects/{id}/{rest}` routes.
func splitProjectPath(path string) (string, string, bool) {
	const prefix = "projects/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	remainder := strings.TrimPrefix(path, prefix)
	projectID, rest, _ := strings.Cut(remainder, "/")
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", "", false
	}
	return projectID, rest, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrAnalysisRequired):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "analysis_required",
			Message: err.Error(),
			Hint:    "Run the analysis before reading schedule results.",
		})
	case errors.Is(err, common.ErrDuplicateActivity):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "duplicate_activity",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrUnknownDependency):
		writeJSONError(w, http.StatusUnprocessableEntity, APIError{
			Code:    "unknown_dependency",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrCyclicDependency):
		writeJSONError(w, http.StatusUnprocessableEntity, APIError{
			Code:    "cyclic_dependency",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrEmptyProject):
		writeJSONError(w, http.StatusUnprocessableEntity, APIError{
			Code:    "no_activities",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrNotImplemented):
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
