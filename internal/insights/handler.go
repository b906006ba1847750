package insights

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/llm"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/respond"
)

// Handler exposes the insights and chat HTTP surface. Provider failures are
// reported inside the response payload so the analytics endpoints stay
// unaffected.
type Handler struct {
	Svc     *Service
	Metrics *analytics.Handler
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, metricsHandler *analytics.Handler) *Handler {
	return &Handler{Svc: svc, Metrics: metricsHandler}
}

// RegisterRoutes attaches insight routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports/:id/insights", h.postInsights)
	rg.POST("/imports/:id/chat", h.postChat)
}

type panelResponse struct {
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *Handler) postInsights(c *gin.Context) {
	bundle, ok := h.loadBundle(c)
	if !ok {
		return
	}
	if bundle.NoData {
		respond.OK(c, panelResponse{Reason: "no_data"})
		return
	}

	text, err := h.Svc.Insights(c.Request.Context(), bundle)
	if err != nil {
		respond.OK(c, panelResponse{Reason: panelReason(err)})
		return
	}
	respond.OK(c, panelResponse{Available: true, Text: text})
}

func (h *Handler) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}

	bundle, ok := h.loadBundle(c)
	if !ok {
		return
	}
	if bundle.NoData {
		respond.OK(c, panelResponse{Reason: "no_data"})
		return
	}

	text, err := h.Svc.Chat(c.Request.Context(), bundle, req.Question)
	if err != nil {
		respond.OK(c, panelResponse{Reason: panelReason(err)})
		return
	}
	respond.OK(c, panelResponse{Available: true, Text: text})
}

func (h *Handler) loadBundle(c *gin.Context) (*analytics.Bundle, bool) {
	id := c.Param("id")
	c.Set("importId", id)

	filter, topN, ok := analytics.ParseQuery(c, h.Metrics.DefaultTopN)
	if !ok {
		return nil, false
	}

	bundle, err := h.Metrics.Bundle(c, id, filter, topN)
	if errors.Is(err, costs.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "import not found", nil)
		return nil, false
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute metrics", nil)
		return nil, false
	}
	return bundle, true
}

func panelReason(err error) string {
	if errors.Is(err, llm.ErrNotConfigured) {
		return "llm_not_configured"
	}
	return "llm_unavailable"
}
