package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/shared/cache"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/object/local"
)

func newTestHandler(t *testing.T, c *cache.Cache) (*gin.Engine, *Handler, costs.Import) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := costs.NewService(costs.NewMemoryRepo(), local.New(t.TempDir()))
	imp, err := svc.Import(context.Background(), "custos.csv",
		[]byte("Serviço,S3($),Lambda($)\n2024-01-15,60,40\n2024-03-10,30,20\n"))
	if err != nil {
		t.Fatalf("seed import: %v", err)
	}

	handler := NewHandler(svc, c, 5)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, handler, imp
}

func TestGetMetrics(t *testing.T) {
	router, _, imp := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+imp.ID+"/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var bundle Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.InDelta(t, 150, bundle.Total, 1e-9)
	assert.True(t, bundle.HasDates)
	assert.Equal(t, 3, len(bundle.Monthly))
}

func TestGetMetricsWithFilters(t *testing.T) {
	router, _, imp := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/imports/"+imp.ID+"/metrics?from=2024-02-01&to=2024-03-31&services=S3($)", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var bundle Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.InDelta(t, 30, bundle.Total, 1e-9)
}

func TestGetMetricsValidatesQuery(t *testing.T) {
	router, _, imp := newTestHandler(t, nil)

	cases := []string{
		"?from=notadate",
		"?from=2024-03-01&to=2024-01-01",
		"?top=0",
	}
	for _, query := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+imp.ID+"/metrics"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetMetricsUnknownImport(t *testing.T) {
	router, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/missing/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMetricsServesFromCache(t *testing.T) {
	c := cache.New(time.Hour)
	router, _, imp := newTestHandler(t, c)

	sentinel := &Bundle{Total: 999}
	c.Set(bundleKey(imp.Checksum, Filter{}, 5), sentinel)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+imp.ID+"/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var bundle Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.InDelta(t, 999, bundle.Total, 1e-9)
}
