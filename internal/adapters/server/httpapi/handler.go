// Package httpapi provides the REST HTTP adapter for the server surfaces.
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

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	service  common.BoardService
	events   common.EventSource
	logger   *log.Logger
	origins  []string
	router   *mux.Router
	upgrader websocket.Upgrader
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

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request failure logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithEvents enables the websocket change feed.
func WithEvents(events common.EventSource) Option {
	return func(h *Handler) {
		h.events = events
	}
}

// WithAllowedOrigins restricts websocket origins. Empty or "*" accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// NewHandler constructs one HTTP API adapter over a board service.
func NewHandler(service common.BoardService, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	h.router = h.routes()
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/tasks", h.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/search", h.handleSearchTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/bulk/update", h.handleBulkUpdate).Methods(http.MethodPost)
	r.HandleFunc("/tasks/bulk/move", h.handleBulkMove).Methods(http.MethodPost)
	r.HandleFunc("/tasks/bulk/delete", h.handleBulkDelete).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.handleGetTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.handleUpdateTask).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.handleDeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id:[0-9]+}/move", h.handleMoveTask).Methods(http.MethodPost)

	r.HandleFunc("/columns", h.handleListColumns).Methods(http.MethodGet)
	r.HandleFunc("/columns", h.handleAddColumn).Methods(http.MethodPost)
	r.HandleFunc("/columns", h.handleSaveColumns).Methods(http.MethodPut)
	r.HandleFunc("/columns/reset", h.handleResetColumns).Methods(http.MethodPost)
	r.HandleFunc("/columns/reorder", h.handleReorderColumns).Methods(http.MethodPost)
	r.HandleFunc("/columns/{id}", h.handleRenameColumn).Methods(http.MethodPatch)
	r.HandleFunc("/columns/{id}", h.handleRemoveColumn).Methods(http.MethodDelete)

	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/projects", h.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/events", h.handleEvents).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, APIError{
			Code:    "method_not_allowed",
			Message: "method not allowed",
		})
	})
	return r
}

// handleListTasks serves GET `/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := common.ListTasksRequest{
		Status:   strings.TrimSpace(q.Get("status")),
		Priority: strings.TrimSpace(q.Get("priority")),
		Assignee: strings.TrimSpace(q.Get("assignee")),
		Query:    q.Get("q"),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}
	projectID, err := optionalID(q.Get("project_id"))
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	req.ProjectID = common.ID(projectID)
	tasks, err := h.service.ListTasks(r.Context(), req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleSearchTasks serves GET `/tasks/search?q=`.
func (h *Handler) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.SearchTasks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req common.CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	task, err := h.service.CreateTask(r.Context(), req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask serves PATCH `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req common.UpdateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	task, err := h.service.UpdateTask(r.Context(), id, req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTask serves POST `/tasks/{id}/move`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req common.MoveTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	task, err := h.service.MoveTask(r.Context(), id, req.Status)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleBulkUpdate serves POST `/tasks/bulk/update`.
func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req common.BulkUpdateRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	tasks, err := h.service.BulkUpdate(r.Context(), req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleBulkMove serves POST `/tasks/bulk/move`.
func (h *Handler) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	var req common.BulkMoveRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	tasks, err := h.service.BulkMove(r.Context(), req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleBulkDelete serves POST `/tasks/bulk/delete`.
func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req common.BulkDeleteRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	result, err := h.service.BulkDelete(r.Context(), req)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListColumns serves GET `/columns`.
func (h *Handler) handleListColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.service.ListColumns(r.Context())
	h.writeColumns(w, http.StatusOK, cols, err)
}

// handleAddColumn serves POST `/columns`.
func (h *Handler) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req common.ColumnTitleRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	col, err := h.service.AddColumn(r.Context(), req.Title)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

// handleSaveColumns serves PUT `/columns`.
func (h *Handler) handleSaveColumns(w http.ResponseWriter, r *http.Request) {
	var req common.SaveColumnsRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	cols, err := h.service.SaveColumns(r.Context(), req.Columns)
	h.writeColumns(w, http.StatusOK, cols, err)
}

// handleResetColumns serves POST `/columns/reset`.
func (h *Handler) handleResetColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.service.ResetColumns(r.Context())
	h.writeColumns(w, http.StatusOK, cols, err)
}

// handleReorderColumns serves POST `/columns/reorder`.
func (h *Handler) handleReorderColumns(w http.ResponseWriter, r *http.Request) {
	var req common.ReorderColumnsRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	cols, err := h.service.ReorderColumns(r.Context(), req.From, req.To)
	h.writeColumns(w, http.StatusOK, cols, err)
}

// handleRenameColumn serves PATCH `/columns/{id}`.
func (h *Handler) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	var req common.ColumnTitleRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	col, err := h.service.RenameColumn(r.Context(), mux.Vars(r)["id"], req.Title)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// handleRemoveColumn serves DELETE `/columns/{id}?reassign_to=`.
func (h *Handler) handleRemoveColumn(w http.ResponseWriter, r *http.Request) {
	cols, err := h.service.RemoveColumn(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("reassign_to"))
	h.writeColumns(w, http.StatusOK, cols, err)
}

// handleStats serves GET `/stats`.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	projectID, err := optionalID(r.URL.Query().Get("project_id"))
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), projectID)
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleListProjects serves GET `/projects`.
func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) writeColumns(w http.ResponseWriter, statusCode int, cols []common.Column, err error) {
	if err != nil {
		h.writeErrorFrom(w, err)
		return
	}
	writeJSON(w, statusCode, map[string]any{"columns": cols})
}

// pathID parses the `{id}` route variable and writes a 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := common.ParseID(mux.Vars(r)["id"])
	if err != nil {
		h.writeErrorFrom(w, err)
		return 0, false
	}
	return id, true
}

func optionalID(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return common.ParseID(raw)
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func (h *Handler) writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrReassignmentRequired):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "reassignment_required",
			Message: err.Error(),
			Hint:    "Pass reassign_to with the id of the column that should receive the tasks.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		h.logger.Error("api request failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
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
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":%s}}`, strconv.Quote(err.Error())), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
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
