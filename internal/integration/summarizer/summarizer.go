// Package summarizer talks to the external text-generation service that turns a feature set
// into a written critique and its own score.
//
//nolint:tagliatelle
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/farcloser/primordium/fault"
)

const (
	// DefaultTimeout is generous: payloads carry the full feature set and services can be slow.
	DefaultTimeout = 5 * time.Minute

	maxResponseBytes = 1 << 20
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Request is posted as JSON.
type Request struct {
	Prompt   string         `json:"prompt"`
	Features map[string]any `json:"features"`
}

// Response is the decoded service answer.
type Response struct {
	Summary         string   `json:"summary"`
	Score           float64  `json:"score"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Client posts requests to a single endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

// New returns a client for endpoint. A zero timeout selects DefaultTimeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
	}
}

// Summarize sends req and decodes the answer. The call is bounded by the client timeout and
// by ctx, whichever ends first.
func (c *Client) Summarize(ctx context.Context, req *Request) (*Response, error) {
	slog.Debug("summarizer.Summarize", "stage", "start", "endpoint", c.endpoint)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, c.timeout)
		}

		return nil, fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var result Response
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	slog.Debug("summarizer.Summarize", "stage", "done", "score", result.Score)

	return &result, nil
}
