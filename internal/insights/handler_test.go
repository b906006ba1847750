package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/llm"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T, client llm.Client) (*gin.Engine, costs.Import) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	costsSvc := costs.NewService(costs.NewMemoryRepo(), local.New(t.TempDir()))
	imp, err := costsSvc.Import(context.Background(), "custos.csv",
		[]byte("Serviço,S3($),Lambda($)\n2024-01-15,60,40\n2024-02-10,30,20\n"))
	if err != nil {
		t.Fatalf("seed import: %v", err)
	}

	metricsHandler := analytics.NewHandler(costsSvc, nil, 5)
	handler := NewHandler(NewService(client, time.Second), metricsHandler)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, imp
}

func TestPostInsights(t *testing.T) {
	router, imp := newTestRouter(t, &fakeClient{reply: "resumo"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+imp.ID+"/insights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp panelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Available || resp.Text != "resumo" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestPostInsightsProviderFailureStaysLocal(t *testing.T) {
	router, imp := newTestRouter(t, llm.PlaceholderClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+imp.ID+"/insights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, panel failures must not fail the request", rec.Code)
	}
	var resp panelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Available || resp.Reason != "llm_not_configured" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestPostChat(t *testing.T) {
	client := &fakeClient{reply: "S3 é o mais caro"}
	router, imp := newTestRouter(t, client)

	body := strings.NewReader(`{"question":"qual o serviço mais caro?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+imp.ID+"/chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(client.lastUser, "qual o serviço mais caro?") {
		t.Fatalf("prompt = %s", client.lastUser)
	}
}

func TestPostChatRequiresQuestion(t *testing.T) {
	router, imp := newTestRouter(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+imp.ID+"/chat",
		strings.NewReader(`{"question":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostInsightsUnknownImport(t *testing.T) {
	router, _ := newTestRouter(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/missing/insights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
