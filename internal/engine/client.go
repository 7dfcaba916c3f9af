// Package engine is the HTTP client for the remote analysis engine.
//
// The engine exposes a single endpoint: POST {url} with body
// {"company_name": "..."}. A 2xx response carries either a full analysis
// payload or {"error": "..."}; anything else is a transport failure.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// ErrUnreachable wraps every failure that happened below the engine's own
// error reporting: connection errors, timeouts, non-2xx statuses and
// undecodable bodies.
var ErrUnreachable = errors.New("analysis engine unreachable")

// Client calls the analysis endpoint. It never retries.
type Client struct {
	endpoint string
	rc       *resty.Client
}

// NewClient creates a client for the given endpoint. timeout bounds each
// call in addition to any deadline on the caller's context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "StockPulse/1.0")

	return &Client{endpoint: endpoint, rc: rc}
}

// Endpoint returns the configured analysis URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Analyze posts query to the engine. It returns a *models.ServiceError when
// the engine answered with a non-empty error field, and an error wrapping
// ErrUnreachable for every transport-level failure.
func (c *Client) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.AnalyzeRequest{CompanyName: query}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode())
	}

	var body models.AnalyzeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnreachable, err)
	}
	if body.Error != "" {
		return nil, &models.ServiceError{Message: body.Error}
	}

	result := body.AnalysisResult
	return &result, nil
}
