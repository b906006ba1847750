package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/shared/config"
)

func buildTestApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(config.Config{
		Env:             "dev",
		LocalStoreDir:   t.TempDir(),
		CacheEnabled:    true,
		CacheTTL:        time.Hour,
		TopN:            5,
		ForecastHorizon: 6,
		AnomalySigma:    3.0,
	})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

func postCSV(t *testing.T, app *App, csv string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports?filename=custos.csv",
		bytes.NewReader([]byte(csv)))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	return resp.ID
}

func TestEndToEndImportAndMetrics(t *testing.T) {
	app := buildTestApp(t)
	id := postCSV(t, app, "Serviço,S3($),Lambda($)\n2024-01-15,60,40\n2024-02-10,30,20\n2024-03-05,50,10\n")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+id+"/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var bundle struct {
		Total   float64 `json:"total"`
		Monthly []struct {
			Month string  `json:"month"`
			Total float64 `json:"total"`
		} `json:"monthly"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if bundle.Total != 210 {
		t.Fatalf("total = %v, want 210", bundle.Total)
	}
	if len(bundle.Monthly) != 3 {
		t.Fatalf("monthly buckets = %d, want 3", len(bundle.Monthly))
	}
}

func TestEndToEndAnomaliesAndForecast(t *testing.T) {
	app := buildTestApp(t)
	id := postCSV(t, app, "Serviço,S3($)\n2024-01-01,100\n2024-02-01,110\n2024-03-01,105\n2024-04-01,95\n")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+id+"/anomalies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anomalies status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+id+"/forecast?horizon=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("forecast status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var forecast struct {
		Projections []struct {
			Month string `json:"month"`
		} `json:"projections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &forecast); err != nil {
		t.Fatalf("decode forecast: %v", err)
	}
	if len(forecast.Projections) != 3 || forecast.Projections[0].Month != "2024-05" {
		t.Fatalf("projections = %+v", forecast.Projections)
	}
}

func TestEndToEndForecastInsufficientHistory(t *testing.T) {
	app := buildTestApp(t)
	id := postCSV(t, app, "Serviço,S3($)\n2024-01-01,100\n")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+id+"/forecast", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
}

func TestEndToEndInsightsWithoutProvider(t *testing.T) {
	app := buildTestApp(t)
	id := postCSV(t, app, "Serviço,S3($)\n2024-01-01,100\n")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+id+"/insights", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("insights status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode insights: %v", err)
	}
	if resp.Available || resp.Reason != "llm_not_configured" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	app := buildTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("import_started_total")) {
		t.Fatalf("metrics body = %s", rec.Body.String())
	}
}
