package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gamecatalog/internal/httpx"
)

type HTTPHandler struct {
	svc  *Service
	base context.Context
}

// NewHTTPHandler builds the operator endpoints. Manual passes run on base,
// so they outlive the request but stop with the process.
func NewHTTPHandler(base context.Context, svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc, base: base}
}

type syncStarted struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Sync handles POST /internal/jobs/sync
// @Summary Trigger a catalog sync
// @Description Starts a background sync over the configured work list and returns immediately
// @Tags internal
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret"
// @Success 202 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /internal/jobs/sync [post]
func (h *HTTPHandler) Sync(w http.ResponseWriter, r *http.Request) {
	started, err := h.svc.TriggerManual(h.base)
	if errors.Is(err, ErrSyncInProgress) {
		httpx.JSONError(w, r, http.StatusConflict, "SYNC_IN_PROGRESS", "A manual sync is already running", nil)
		return
	}
	if err != nil {
		slog.Error("trigger sync failed", "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONAccepted(w, r, syncStarted{Status: "started", Timestamp: started})
}

type runView struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
}

// Runs handles GET /internal/jobs/sync/runs
func (h *HTTPHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := h.svc.RecentRuns(r.Context(), limit)
	if err != nil {
		slog.Error("list sync runs failed", "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView(run))
	}
	httpx.JSONSuccess(w, r, views, nil)
}
