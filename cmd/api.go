package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/ports"
	"fieldwatch/internal/usecase/query"
	syncusecase "fieldwatch/internal/usecase/sync"
)

type issueQueryService interface {
	ListIssues(ctx context.Context, input query.ListIssuesInput) ([]query.IssueView, error)
	ListResponses(ctx context.Context, issueID string) ([]query.ResponseView, error)
}

type syncRunner interface {
	Run(ctx context.Context) (syncusecase.Result, error)
}

type apiHandler struct {
	query issueQueryService
	sync  syncRunner
	state ports.SyncState
	hub   *wsHub
}

type apiSyncResponse struct {
	Issues    int `json:"issues"`
	Images    int `json:"images"`
	Responses int `json:"responses"`
}

type apiStatusResponse struct {
	LastSyncAt *string `json:"last_sync_at"`
	Issues     *string `json:"issues"`
	Images     *string `json:"images"`
	Responses  *string `json:"responses"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

func newAPIHandler(querySvc issueQueryService, syncSvc syncRunner, state ports.SyncState, hub *wsHub) http.Handler {
	h := &apiHandler{
		query: querySvc,
		sync:  syncSvc,
		state: state,
		hub:   hub,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/issues", h.handleListIssues)
	r.Get("/api/responses/{issueID}", h.handleListResponses)
	r.Post("/api/sync", h.handleSync)
	r.Get("/api/status", h.handleStatus)
	if hub != nil {
		r.Get("/ws", hub.serveWS)
	}
	return r
}

func (h *apiHandler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := query.ListIssuesInput{
		Search:    strings.TrimSpace(q.Get("search")),
		Status:    strings.TrimSpace(q.Get("state")),
		Severity:  strings.TrimSpace(q.Get("severity")),
		Timeframe: strings.TrimSpace(q.Get("timeframe")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}

	issues, err := h.query.ListIssues(r.Context(), input)
	if err != nil {
		logging.Error(r.Context(), "list issues failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusInternalServerError, "failed to list issues")
		return
	}
	if issues == nil {
		issues = []query.IssueView{}
	}
	writeAPIJSON(w, http.StatusOK, issues)
}

func (h *apiHandler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	issueID := chi.URLParam(r, "issueID")
	if strings.TrimSpace(issueID) == "" {
		writeAPIError(w, http.StatusBadRequest, "issue id is required")
		return
	}

	responses, err := h.query.ListResponses(r.Context(), issueID)
	if err != nil {
		logging.Error(r.Context(), "list responses failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusInternalServerError, "failed to list responses")
		return
	}
	if responses == nil {
		responses = []query.ResponseView{}
	}
	writeAPIJSON(w, http.StatusOK, responses)
}

func (h *apiHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.Run(r.Context())
	if err != nil {
		logging.Error(r.Context(), "manual sync failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusBadGateway, "sync failed")
		return
	}

	if h.hub != nil {
		h.hub.broadcast("data_updated")
	}

	writeAPIJSON(w, http.StatusOK, apiSyncResponse{
		Issues:    result.Issues,
		Images:    result.Images,
		Responses: result.Responses,
	})
}

func (h *apiHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := apiStatusResponse{}
	reads := []struct {
		key  string
		dest **string
	}{
		{ports.StateLastSyncAt, &status.LastSyncAt},
		{ports.StateLastSyncIssues, &status.Issues},
		{ports.StateLastSyncImages, &status.Images},
		{ports.StateLastSyncResponses, &status.Responses},
	}
	for _, read := range reads {
		value, found, err := h.state.Get(r.Context(), read.key)
		if err != nil {
			logging.Error(r.Context(), "read sync state failed", slog.Any("err", errs.Loggable(err)))
			writeAPIError(w, http.StatusInternalServerError, "failed to read sync state")
			return
		}
		if found {
			v := value
			*read.dest = &v
		}
	}
	writeAPIJSON(w, http.StatusOK, status)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
