package anomaly

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

// Handler exposes anomaly detection over the monthly cost series.
type Handler struct {
	Metrics *analytics.Handler
	Sigma   float64
}

// NewHandler constructs a Handler.
func NewHandler(metricsHandler *analytics.Handler, sigma float64) *Handler {
	return &Handler{Metrics: metricsHandler, Sigma: sigma}
}

// RegisterRoutes attaches anomaly routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/imports/:id/anomalies", h.getAnomalies)
}

func (h *Handler) getAnomalies(c *gin.Context) {
	id := c.Param("id")
	c.Set("importId", id)

	filter, topN, ok := analytics.ParseQuery(c, h.Metrics.DefaultTopN)
	if !ok {
		return
	}
	sigma := h.Sigma
	if raw := strings.TrimSpace(c.Query("sigma")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "sigma must be a positive number", nil)
			return
		}
		sigma = v
	}

	bundle, err := h.Metrics.Bundle(c, id, filter, topN)
	if errors.Is(err, costs.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "import not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute anomalies", nil)
		return
	}

	if !bundle.HasDates {
		respond.OK(c, Report{Reason: "no_time_axis", Points: []Detection{}})
		return
	}

	series := make([]Point, 0, len(bundle.Monthly))
	for _, m := range bundle.Monthly {
		series = append(series, Point{Bucket: m.Month, Value: m.Total})
	}
	respond.OK(c, Detect(series, Options{Sigma: sigma}))
}
