// Package health provides liveness and readiness endpoints for the daemon.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc performs a health check for one component. It returns nil when
// the component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single component check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Status is the overall health report.
type Status struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs registered component checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds a named component check, replacing any existing one.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs every registered check and reports the combined status.
func (c *Checker) Check(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	status := Status{
		Status:    "ok",
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now().UTC(),
	}

	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(checkCtx)
		cancel()

		if err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = CheckResult{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Checks[name] = CheckResult{Status: "ok"}
	}
	return status
}

// Handler returns an HTTP handler reporting the checker's status. It
// responds 200 when healthy and 503 otherwise.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}
