package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gamecatalog/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

type releaseQuery struct {
	Month    string `validate:"required,yearmonth"`
	Platform string `validate:"max=32"`
	Genre    string `validate:"max=64"`
}

type snapshotView struct {
	Date      string `json:"date"`
	Followers int64  `json:"followers"`
}

// GetByAppID handles GET /v1/games/{appid}
// @Summary Get a game by Steam app id
// @Tags games
// @Produce json
// @Param appid path int true "Steam app id"
// @Param history query bool false "Include daily follower snapshots"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/games/{appid} [get]
func (h *HTTPHandler) GetByAppID(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.ParseInt(r.PathValue("appid"), 10, 64)
	if err != nil || appID <= 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "appid must be a positive integer", nil)
		return
	}

	if r.URL.Query().Get("history") != "true" {
		g, err := h.svc.GetByAppID(r.Context(), appID)
		if err != nil {
			h.writeErr(w, r, appID, err)
			return
		}
		httpx.JSONSuccess(w, r, g, nil)
		return
	}

	g, snaps, err := h.svc.History(r.Context(), appID)
	if err != nil {
		h.writeErr(w, r, appID, err)
		return
	}
	views := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, snapshotView{Date: s.SnapshotDate.Format("2006-01-02"), Followers: s.Followers})
	}
	httpx.JSONSuccess(w, r, map[string]any{"game": g, "snapshots": views}, nil)
}

// List handles GET /v1/games
// @Summary Games released in a month
// @Tags games
// @Produce json
// @Param month query string true "Release month (yyyy-MM)"
// @Param platform query string false "Only games on this platform (case-insensitive)"
// @Param genre query string false "Only games with this genre (case-insensitive)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/games [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	month, f, ok := parseReleaseQuery(w, r)
	if !ok {
		return
	}
	games, err := h.svc.ListByMonth(r.Context(), month, f)
	if err != nil {
		slog.Error("list games by month failed", "month", month.Format(MonthLayout), "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, games, map[string]any{
		"month":    month.Format(MonthLayout),
		"platform": f.Platform,
		"genre":    f.Genre,
		"count":    len(games),
	})
}

// Calendar handles GET /v1/games/calendar
// @Summary Per-day release counts for a month
// @Tags games
// @Produce json
// @Param month query string true "Release month (yyyy-MM)"
// @Param platform query string false "Only games on this platform (case-insensitive)"
// @Param genre query string false "Only games with this genre (case-insensitive)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/games/calendar [get]
func (h *HTTPHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month, f, ok := parseReleaseQuery(w, r)
	if !ok {
		return
	}
	cal, err := h.svc.Calendar(r.Context(), month, f)
	if err != nil {
		slog.Error("release calendar failed", "month", month.Format(MonthLayout), "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, cal, nil)
}

func parseReleaseQuery(w http.ResponseWriter, r *http.Request) (time.Time, Filter, bool) {
	q := r.URL.Query()
	params := releaseQuery{Month: q.Get("month"), Platform: q.Get("platform"), Genre: q.Get("genre")}
	if details := httpx.ValidateStruct(params); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid month format. Expected yyyy-MM", details)
		return time.Time{}, Filter{}, false
	}
	month, err := time.Parse(MonthLayout, params.Month)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid month format. Expected yyyy-MM", nil)
		return time.Time{}, Filter{}, false
	}
	return month, Filter{Platform: params.Platform, Genre: params.Genre}, true
}

func (h *HTTPHandler) writeErr(w http.ResponseWriter, r *http.Request, appID int64, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Game not found", nil)
		return
	}
	slog.Error("get game failed", "app_id", appID, "error", err)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
