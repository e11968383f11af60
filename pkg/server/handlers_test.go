package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"breakapp-hq/tally/pkg/budget"
	"breakapp-hq/tally/pkg/budget/storage"
	"breakapp-hq/tally/pkg/config"
	"breakapp-hq/tally/pkg/telemetry/health"
	"breakapp-hq/tally/pkg/telemetry/metrics"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store := storage.NewMemoryStore()
	svc := budget.NewService(budget.ServiceConfig{Store: store})

	cfg := config.NewDefaultConfig()
	srv := NewServer(cfg, svc, health.New(0), metrics.NewCollector(nil), VersionInfo{
		Version: "test",
	})
	return srv.setupRoutes()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createBudgetHTTP(t *testing.T, handler http.Handler, maxLimit float64) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/v1/budgets",
		fmt.Sprintf(`{"name":"Grip department","type":"DEPARTMENT","max_limit":%.2f}`, maxLimit))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var b budget.Budget
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("Failed to decode budget: %v", err)
	}
	return b.ID
}

func TestCreateAndGetBudget(t *testing.T) {
	handler := newTestServer(t)
	id := createBudgetHTTP(t, handler, 1000)

	rec := doJSON(t, handler, http.MethodGet, "/v1/budgets/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var b budget.Budget
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("Failed to decode budget: %v", err)
	}
	if b.Name != "Grip department" || b.MaxLimit != 1000 {
		t.Errorf("Unexpected budget: %+v", b)
	}
}

func TestCreateBudgetBadRequest(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/v1/budgets", `{"name":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid params, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/budgets", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/budgets",
		`{"name":"x","type":"VIP","max_limit":100,"surprise":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestChargeFlow(t *testing.T) {
	handler := newTestServer(t)
	id := createBudgetHTTP(t, handler, 1000)

	rec := doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge",
		`{"amount":850,"user_id":"user-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result budget.ChargeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Budget.UsedAmount != 850 {
		t.Errorf("Expected used amount 850, got %.2f", result.Budget.UsedAmount)
	}
	if result.Alert == nil || result.Alert.Type != budget.AlertWarning {
		t.Errorf("Expected WARNING alert in response, got %+v", result.Alert)
	}
}

func TestChargeErrorMapping(t *testing.T) {
	handler := newTestServer(t)
	id := createBudgetHTTP(t, handler, 1000)

	// Unknown budget: 404
	rec := doJSON(t, handler, http.MethodPost, "/v1/budgets/missing/charge", `{"amount":10}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	// Non-positive amount: 422
	rec = doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge", `{"amount":-5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for invalid amount, got %d", rec.Code)
	}

	// Inactive budget: 422
	rec = doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/deactivate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for deactivate, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge", `{"amount":10}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for inactive budget, got %d", rec.Code)
	}
}

func TestResetAndAlertEndpoints(t *testing.T) {
	handler := newTestServer(t)
	id := createBudgetHTTP(t, handler, 1000)

	doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge", `{"amount":900,"user_id":"u"}`)

	rec := doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/reset", `{"user_id":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for reset, got %d", rec.Code)
	}
	var b budget.Budget
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("Failed to decode budget: %v", err)
	}
	if b.UsedAmount != 0 {
		t.Errorf("Expected used amount 0 after reset, got %.2f", b.UsedAmount)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/budgets/"+id+"/alerts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for alerts, got %d", rec.Code)
	}
	var alerts []*budget.CostAlert
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("Failed to decode alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts (WARNING + RESET), got %d", len(alerts))
	}

	// Resolve the warning alert
	var warningID string
	for _, a := range alerts {
		if a.Type == budget.AlertWarning {
			warningID = a.ID
		}
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/alerts/"+warningID+"/resolve", `{"resolved_by":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for resolve, got %d", rec.Code)
	}
	var resolved budget.CostAlert
	if err := json.Unmarshal(rec.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("Failed to decode alert: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolvedBy != "admin" {
		t.Errorf("Expected resolved alert, got %+v", resolved)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/alerts/"+warningID+"/read", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for read, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/alerts/missing/resolve", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing alert, got %d", rec.Code)
	}
}

func TestReportAndAnalyticsEndpoints(t *testing.T) {
	handler := newTestServer(t)
	id := createBudgetHTTP(t, handler, 1000)

	doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge", `{"amount":200}`)
	doJSON(t, handler, http.MethodPost, "/v1/budgets/"+id+"/charge", `{"amount":300}`)

	rec := doJSON(t, handler, http.MethodGet, "/v1/budgets/"+id+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for report, got %d", rec.Code)
	}
	var report budget.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.TotalCharged != 500 || report.ChargeCount != 2 {
		t.Errorf("Expected 500/2 charges, got %+v", report)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for analytics, got %d", rec.Code)
	}
	var summary budget.Analytics
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to decode analytics: %v", err)
	}
	if summary.ActiveBudgets != 1 || summary.TotalSpent != 500 {
		t.Errorf("Unexpected analytics: %+v", summary)
	}

	// Malformed time range: 400
	rec = doJSON(t, handler, http.MethodGet, "/v1/budgets/"+id+"/report?start=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad time range, got %d", rec.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for /health, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for /ready, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/version", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for /version, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for /metrics, got %d", rec.Code)
	}

	// Request ID header present on API responses
	rec = doJSON(t, handler, http.MethodGet, "/v1/budgets", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header on responses")
	}
}
