// Package session keeps one favorites engine per logged-in user.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/favorites"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/al3xb0/mindpal-task/internal/store"
	"go.uber.org/zap"
)

// Gauge receives the number of live sessions after every change.
type Gauge interface {
	SetActiveSessions(n int)
}

// Config configures a Registry.
type Config struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Engine        favorites.Options
	Gauge         Gauge
	Now           func() time.Time
}

type entry struct {
	engine   *favorites.Engine
	lastUsed time.Time
	// ready is closed once the bootstrap Refetch has finished.
	ready chan struct{}
}

// Registry owns the favorites engines of active users. Engines idle for
// longer than IdleTTL are closed and dropped by a background sweeper.
type Registry struct {
	store    store.Store
	identity auth.Identity
	cfg      Config
	logger   *zap.Logger

	mu        sync.Mutex
	sessions  map[string]*entry
	anonymous *favorites.Engine

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a registry and starts its sweeper.
func NewRegistry(s store.Store, identity auth.Identity, cfg Config, logger *zap.Logger) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	r := &Registry{
		store:     s,
		identity:  identity,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*entry),
		anonymous: favorites.NewEngine(s, identity, logger.With(zap.Bool("anonymous", true)), cfg.Engine),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go r.sweep()

	return r
}

// Engine returns the user's engine, creating and loading it on first use.
// Callers never see an engine whose bootstrap load is still running; a caller
// that gives up waiting gets ctx's error. An empty userID yields a shared
// engine that holds no favorites and answers every mutation with an
// authentication notice.
func (r *Registry) Engine(ctx context.Context, userID string) (*favorites.Engine, error) {
	if userID == "" {
		return r.anonymous, nil
	}

	r.mu.Lock()
	if e, ok := r.sessions[userID]; ok {
		e.lastUsed = r.cfg.Now()
		r.mu.Unlock()

		select {
		case <-e.ready:
			return e.engine, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	logger := r.logger.With(zap.String("user_id", userID))
	engine := favorites.NewEngine(r.store, r.identity, logger, r.cfg.Engine)
	engine.SetNotifier(favorites.NotifierFunc(func(n model.Notification) {
		logger.Debug("favorites notification",
			zap.String("level", string(n.Level)),
			zap.String("code", n.Code),
			zap.String("message", n.Message),
		)
	}))
	e := &entry{engine: engine, lastUsed: r.cfg.Now(), ready: make(chan struct{})}
	r.sessions[userID] = e
	count := len(r.sessions)
	r.mu.Unlock()

	r.reportCount(count)
	logger.Info("favorites session started")

	// The load is shared by every waiter, so it must outlive this caller.
	if err := engine.Refetch(auth.WithUser(context.WithoutCancel(ctx), userID)); err != nil {
		logger.Warn("favorites bootstrap failed", zap.Error(err))
	}
	close(e.ready)

	return engine, nil
}

// EvictIdle closes and drops every session idle for longer than IdleTTL and
// returns how many were evicted.
func (r *Registry) EvictIdle() int {
	now := r.cfg.Now()

	r.mu.Lock()
	var evicted []string
	for userID, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.cfg.IdleTTL {
			e.engine.Close()
			delete(r.sessions, userID)
			evicted = append(evicted, userID)
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if len(evicted) > 0 {
		r.reportCount(count)
		r.logger.Info("evicted idle favorites sessions",
			zap.Int("evicted", len(evicted)),
			zap.Int("remaining", count),
		)
	}
	return len(evicted)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the sweeper and retires every engine.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done

		r.mu.Lock()
		for userID, e := range r.sessions {
			e.engine.Close()
			delete(r.sessions, userID)
		}
		r.mu.Unlock()

		r.anonymous.Close()
		r.reportCount(0)
	})
}

// sweep periodically evicts idle sessions.
func (r *Registry) sweep() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.EvictIdle()
		case <-r.stop:
			return
		}
	}
}

func (r *Registry) reportCount(n int) {
	if r.cfg.Gauge != nil {
		r.cfg.Gauge.SetActiveSessions(n)
	}
}
