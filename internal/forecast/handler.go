package forecast

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/respond"
)

// Handler exposes forecasting over the monthly cost series.
type Handler struct {
	Metrics *analytics.Handler
	Horizon int
}

// NewHandler constructs a Handler.
func NewHandler(metricsHandler *analytics.Handler, horizon int) *Handler {
	return &Handler{Metrics: metricsHandler, Horizon: horizon}
}

// RegisterRoutes attaches forecast routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/imports/:id/forecast", h.getForecast)
}

type forecastResponse struct {
	Horizon     int          `json:"horizon"`
	Projections []Projection `json:"projections"`
}

func (h *Handler) getForecast(c *gin.Context) {
	id := c.Param("id")
	c.Set("importId", id)

	filter, topN, ok := analytics.ParseQuery(c, h.Metrics.DefaultTopN)
	if !ok {
		return
	}
	horizon := h.Horizon
	if raw := strings.TrimSpace(c.Query("horizon")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 24 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "horizon must be between 1 and 24", nil)
			return
		}
		horizon = n
	}

	bundle, err := h.Metrics.Bundle(c, id, filter, topN)
	if errors.Is(err, costs.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "import not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute forecast", nil)
		return
	}

	if !bundle.HasDates {
		respond.Error(c, http.StatusUnprocessableEntity, "no_time_axis",
			"import has no usable date column", nil)
		return
	}

	series := make([]Point, 0, len(bundle.Monthly))
	for _, m := range bundle.Monthly {
		series = append(series, Point{Month: m.Month, Value: m.Total})
	}

	projections, err := Project(series, Options{Horizon: horizon})
	if errors.Is(err, ErrInsufficientHistory) {
		respond.Error(c, http.StatusUnprocessableEntity, "insufficient_history",
			"not enough monthly history to forecast", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute forecast", nil)
		return
	}
	respond.OK(c, forecastResponse{Horizon: horizon, Projections: projections})
}
