package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_AllHealthy(t *testing.T) {
	checker := New(0)
	checker.Register("storage", func(ctx context.Context) error { return nil })
	checker.Register("jobs", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())
	if status.Status != "ok" {
		t.Errorf("Expected ok, got %q", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(status.Checks))
	}
}

func TestChecker_UnhealthyComponent(t *testing.T) {
	checker := New(0)
	checker.Register("storage", func(ctx context.Context) error { return nil })
	checker.Register("jobs", func(ctx context.Context) error {
		return errors.New("database locked")
	})

	status := checker.Check(context.Background())
	if status.Status != "unhealthy" {
		t.Errorf("Expected unhealthy, got %q", status.Status)
	}
	if status.Checks["jobs"].Message != "database locked" {
		t.Errorf("Expected failure message, got %+v", status.Checks["jobs"])
	}
	if status.Checks["storage"].Status != "ok" {
		t.Errorf("Healthy component must stay ok, got %+v", status.Checks["storage"])
	}
}

func TestChecker_Handler(t *testing.T) {
	checker := New(0)
	checker.Register("storage", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	checker.Register("jobs", func(ctx context.Context) error {
		return errors.New("down")
	})
	rec = httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
