// Package directory provides the client for the upstream character directory.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/al3xb0/mindpal-task/internal/config"
	"github.com/al3xb0/mindpal-task/internal/model"
	"go.uber.org/zap"
)

// DataSource is the paginated character search capability consumed by the gateway.
type DataSource interface {
	Characters(ctx context.Context, page int, filter *model.FilterCriteria) (*Response, error)
}

// Response is the GraphQL envelope returned by the directory.
type Response struct {
	Data   *model.DirectoryPage `json:"data"`
	Errors []GraphQLError       `json:"errors,omitempty"`
}

// GraphQLError is an application-level error reported by the directory.
type GraphQLError struct {
	Message string `json:"message"`
}

// FirstError returns the first application-level error message, if any.
func (r *Response) FirstError() (string, bool) {
	if r == nil || len(r.Errors) == 0 {
		return "", false
	}
	return r.Errors[0].Message, true
}

type request struct {
	Query     string    `json:"query"`
	Variables variables `json:"variables"`
}

type variables struct {
	Page   int                   `json:"page"`
	Filter *model.FilterCriteria `json:"filter"`
}

// Client calls the directory GraphQL endpoint over HTTP.
type Client struct {
	httpClient      *http.Client
	endpoint        string
	query           string
	maxResponseSize int64
	logger          *zap.Logger
	mu              sync.RWMutex
	isHealthy       bool
}

// NewClient creates a new directory client. It fails if the query document is malformed.
func NewClient(cfg config.DirectoryConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no directory endpoint provided")
	}

	if err := checkQuery(CharactersQuery); err != nil {
		return nil, err
	}

	maxSize := cfg.MaxResponseSize
	if maxSize <= 0 {
		maxSize = 4 << 20
	}

	return &Client{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		endpoint:        cfg.Endpoint,
		query:           CharactersQuery,
		maxResponseSize: maxSize,
		logger:          logger,
		isHealthy:       true,
	}, nil
}

// Characters issues exactly one query for the given page and filter. A nil
// filter is sent as JSON null, meaning "no filter".
func (c *Client) Characters(ctx context.Context, page int, filter *model.FilterCriteria) (*Response, error) {
	body, err := json.Marshal(request{
		Query:     c.query,
		Variables: variables{Page: page, Filter: filter},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode directory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setHealthy(false)
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.setHealthy(resp.StatusCode < 500)
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxResponseSize))
		return nil, fmt.Errorf("directory API returned status: %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxResponseSize)).Decode(&out); err != nil {
		c.setHealthy(false)
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}

	c.setHealthy(true)

	c.logger.Debug("directory query completed",
		zap.Int("page", page),
		zap.Bool("filtered", filter != nil),
		zap.Int("errors", len(out.Errors)),
	)

	return &out, nil
}

// IsHealthy reports whether the last directory call reached a working upstream.
func (c *Client) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isHealthy
}

func (c *Client) setHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isHealthy = healthy
}
