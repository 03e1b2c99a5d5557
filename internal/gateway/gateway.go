// Package gateway turns untrusted character search requests into a single
// safe directory query.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/al3xb0/mindpal-task/internal/directory"
	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/al3xb0/mindpal-task/internal/validation"
	"go.uber.org/zap"
)

// Upstream call outcomes reported to the Observer.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
	OutcomeRejected       = "rejected"
)

// Request is a character search as received from a client.
type Request struct {
	Page   json.RawMessage `json:"page,omitempty"`
	Filter json.RawMessage `json:"filter,omitempty"`
}

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(outcome string, duration time.Duration)
}

// Gateway validates requests and forwards them to the directory. It holds no
// per-request state and is safe for concurrent use.
type Gateway struct {
	source    directory.DataSource
	validator *validation.FilterValidator
	observer  Observer
	logger    *zap.Logger
}

// NewGateway creates a new Gateway. observer may be nil.
func NewGateway(source directory.DataSource, observer Observer, logger *zap.Logger) *Gateway {
	return &Gateway{
		source:    source,
		validator: validation.NewFilterValidator(),
		observer:  observer,
		logger:    logger,
	}
}

// GetCharacters returns the requested page of the directory. Invalid pages and
// filters are rejected before the directory is contacted. The directory is
// called exactly once and its data object is returned as is.
func (g *Gateway) GetCharacters(ctx context.Context, req Request) (*model.DirectoryPage, error) {
	page, err := coercePage(req.Page)
	if err != nil {
		return nil, err
	}

	result := g.validator.Validate(req.Filter)
	if !result.Valid() {
		return nil, apierrors.InvalidFilter(result.Errors)
	}

	start := time.Now()
	resp, err := g.source.Characters(ctx, page, result.Sanitized)
	duration := time.Since(start)

	if err != nil {
		g.observe(OutcomeTransportError, duration)
		g.logger.Warn("directory call failed",
			zap.Int("page", page),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, apierrors.Upstream(err.Error(), nil)
	}

	if msg, ok := resp.FirstError(); ok {
		g.observe(OutcomeRejected, duration)
		g.logger.Info("directory rejected query",
			zap.Int("page", page),
			zap.String("message", msg),
		)
		return nil, apierrors.Upstream(msg, nil)
	}

	if resp.Data == nil {
		g.observe(OutcomeRejected, duration)
		return nil, apierrors.Upstream("directory returned no data", nil)
	}

	g.observe(OutcomeSuccess, duration)
	return resp.Data, nil
}

func (g *Gateway) observe(outcome string, duration time.Duration) {
	if g.observer != nil {
		g.observer.ObserveUpstream(outcome, duration)
	}
}
