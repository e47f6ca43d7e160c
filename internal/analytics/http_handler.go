package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"gamecatalog/internal/httpx"
)

type genresQuery struct {
	Month    string `validate:"omitempty,yearmonth"`
	Platform string `validate:"max=32"`
}

type trendsQuery struct {
	Months         int `validate:"gte=1,lte=120"`
	IncludeCurrent bool
}

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Genres handles GET /v1/analytics/genres
// @Summary Genre leaderboard for a release month
// @Tags analytics
// @Produce json
// @Param month query string false "Release month (yyyy-MM), defaults to the current month"
// @Param platform query string false "Only games available on this platform"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/analytics/genres [get]
func (h *HTTPHandler) Genres(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := genresQuery{Month: q.Get("month"), Platform: q.Get("platform")}
	if details := httpx.ValidateStruct(params); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", details)
		return
	}
	month := MonthStart(h.svc.now())
	if params.Month != "" {
		m, err := ParseMonth(params.Month)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		month = m
	}

	shares, err := h.svc.GenreLeaderboard(r.Context(), month, params.Platform)
	if err != nil {
		slog.Error("genre leaderboard failed", "month", month.Format(MonthLayout), "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, shares, map[string]any{
		"month":    month.Format(MonthLayout),
		"platform": params.Platform,
	})
}

// Trends handles GET /v1/analytics/trends
// @Summary Top genres month over month
// @Tags analytics
// @Produce json
// @Param months query int false "Number of months" default(3)
// @Param include_current query bool false "End the window at the current month" default(true)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/analytics/trends [get]
func (h *HTTPHandler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := trendsQuery{Months: 3, IncludeCurrent: true}
	if v := q.Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", ErrInvalidMonths.Error(), []httpx.ErrorDetail{
				{Field: "months", Message: "months must be an integer"},
			})
			return
		}
		params.Months = n
	}
	if v := q.Get("include_current"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "include_current must be a boolean", nil)
			return
		}
		params.IncludeCurrent = b
	}
	if details := httpx.ValidateStruct(params); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", ErrInvalidMonths.Error(), details)
		return
	}
	months, includeCurrent := params.Months, params.IncludeCurrent

	trends, err := h.svc.GenreTrends(r.Context(), months, includeCurrent)
	switch {
	case errors.Is(err, ErrInvalidMonths):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	case errors.Is(err, ErrNoData):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	case err != nil:
		slog.Error("genre trends failed", "months", months, "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, trends, map[string]any{"months": months, "include_current": includeCurrent})
}
