// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger is a dependency that can be probed directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReporter is a dependency that tracks its own health.
type StatusReporter interface {
	IsHealthy() bool
}

// HealthCheck serves /health and /ready.
type HealthCheck struct {
	store     Pinger
	directory StatusReporter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHealthCheck creates a new HealthCheck instance.
func NewHealthCheck(store Pinger, directory StatusReporter, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		store:     store,
		directory: directory,
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// LivenessHandler handles GET /health. It succeeds while the process runs.
func (hc *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready. The favorites store is pinged and the
// directory is judged by its most recent call.
func (hc *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checks, err := hc.Check(r.Context())
	if err != nil {
		hc.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
			Status: "not_ready",
			Checks: checks,
			Error:  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Checks: checks})
}

// Check runs all dependency checks concurrently and returns the per-dependency
// status along with the first failure.
func (hc *HealthCheck) Check(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string, 2)
	)
	set := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = "unhealthy"
			return
		}
		checks[name] = "healthy"
	}

	g, gctx := errgroup.WithContext(ctx)

	if hc.store != nil {
		g.Go(func() error {
			err := hc.store.Ping(gctx)
			set("favorites_store", err)
			if err != nil {
				return fmt.Errorf("favorites store: %w", err)
			}
			return nil
		})
	}

	if hc.directory != nil {
		g.Go(func() error {
			var err error
			if !hc.directory.IsHealthy() {
				err = fmt.Errorf("directory: last call failed")
			}
			set("directory", err)
			return err
		})
	}

	err := g.Wait()
	return checks, err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
