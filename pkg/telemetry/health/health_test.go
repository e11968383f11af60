package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckLiveness(t *testing.T) {
	c := New(0)
	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("Expected ok, got %s", status.Status)
	}
}

func TestCheckReadinessNoChecks(t *testing.T) {
	c := New(0)
	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("Expected ready with no checks, got %s", status.Status)
	}
}

func TestCheckReadinessHealthy(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("storage", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("Expected ready, got %s", status.Status)
	}
	if status.Checks["storage"].Status != "ok" {
		t.Errorf("Expected storage check ok, got %+v", status.Checks["storage"])
	}
}

func TestCheckReadinessDegraded(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("storage", func(ctx context.Context) error { return nil })
	c.RegisterCheck("broken", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", status.Status)
	}
	if status.Checks["broken"].Message != "connection refused" {
		t.Errorf("Expected failure message, got %+v", status.Checks["broken"])
	}
}

func TestCheckReadinessTimeout(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("Expected degraded on timeout, got %s", status.Status)
	}
}

func TestReadinessHandlerStatusCodes(t *testing.T) {
	c := New(time.Second)

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 when ready, got %d", rec.Code)
	}

	c.RegisterCheck("broken", func(ctx context.Context) error {
		return errors.New("down")
	})
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when degraded, got %d", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-01-01")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Failed to decode version info: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("Unexpected version info: %+v", info)
	}
	if info.GoVersion == "" {
		t.Error("Expected Go version to be populated")
	}
}
