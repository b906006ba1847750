package analytics

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/shared/cache"
	"github.com/vaniusmax/projeto-finops/internal/shared/metrics"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/respond"
)

// Handler exposes the metrics HTTP surface.
type Handler struct {
	Costs       *costs.Service
	Cache       *cache.Cache
	DefaultTopN int
}

// NewHandler constructs a Handler. Cache may be nil to disable memoization.
func NewHandler(costsSvc *costs.Service, c *cache.Cache, defaultTopN int) *Handler {
	return &Handler{Costs: costsSvc, Cache: c, DefaultTopN: defaultTopN}
}

// RegisterRoutes attaches metrics routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/imports/:id/metrics", h.getMetrics)
}

func (h *Handler) getMetrics(c *gin.Context) {
	id := c.Param("id")
	c.Set("importId", id)

	filter, topN, ok := ParseQuery(c, h.DefaultTopN)
	if !ok {
		return
	}

	bundle, err := h.Bundle(c, id, filter, topN)
	if errors.Is(err, costs.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "import not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute metrics", nil)
		return
	}
	respond.OK(c, bundle)
}

// Bundle returns the metrics bundle for an import, serving from cache when
// the same content and filter were computed recently. The cache key includes
// the file checksum, so re-imported content never reuses stale figures.
func (h *Handler) Bundle(c *gin.Context, importID string, filter Filter, topN int) (*Bundle, error) {
	ds, imp, err := h.Costs.Dataset(c.Request.Context(), importID)
	if err != nil {
		return nil, err
	}

	key := bundleKey(imp.Checksum, filter, topN)
	if h.Cache != nil {
		if cached, ok := h.Cache.Get(key); ok {
			metrics.IncCacheHit()
			c.Set("cacheState", "hit")
			return cached.(*Bundle), nil
		}
		metrics.IncCacheMiss()
		c.Set("cacheState", "miss")
	}

	bundle := Aggregate(ds, filter, topN)
	if h.Cache != nil {
		h.Cache.Set(key, bundle)
	}
	return bundle, nil
}

// ParseQuery reads the shared filter parameters (from, to, services, top)
// used by every per-import analytics endpoint.
func ParseQuery(c *gin.Context, defaultTopN int) (Filter, int, bool) {
	var filter Filter

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD", nil)
			return filter, 0, false
		}
		filter.From = &t
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "to must be YYYY-MM-DD", nil)
			return filter, 0, false
		}
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "to must not precede from", nil)
		return filter, 0, false
	}
	if raw := strings.TrimSpace(c.Query("services")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Services = append(filter.Services, s)
			}
		}
	}

	topN := defaultTopN
	if raw := strings.TrimSpace(c.Query("top")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "top must be a positive integer", nil)
			return filter, 0, false
		}
		topN = n
	}
	return filter, topN, true
}

// bundleKey encodes the content identity plus the full filter state.
func bundleKey(checksum string, f Filter, topN int) string {
	var b strings.Builder
	b.WriteString("metrics:")
	b.WriteString(checksum)
	b.WriteString("|from=")
	if f.From != nil {
		b.WriteString(f.From.Format("2006-01-02"))
	}
	b.WriteString("|to=")
	if f.To != nil {
		b.WriteString(f.To.Format("2006-01-02"))
	}
	b.WriteString("|services=")
	if len(f.Services) > 0 {
		services := append([]string{}, f.Services...)
		sort.Strings(services)
		b.WriteString(strings.Join(services, ","))
	}
	b.WriteString("|top=")
	b.WriteString(strconv.Itoa(topN))
	return b.String()
}
