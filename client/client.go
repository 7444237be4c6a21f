// Package client posts GraphQL queries to the OTP-compatible transit
// endpoint. It is stateless and safe to call in parallel; every call carries
// the API key header and a default 20-second deadline.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is applied when the caller's context has no deadline.
const DefaultTimeout = 20 * time.Second

const apiKeyHeader = "digitransit-subscription-key"

type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	timeout    time.Duration
}

// New creates a client for the given endpoint. A zero timeout selects
// DefaultTimeout.
func New(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// Do posts the query and returns the parsed data field. Failures carry the
// {Network | Timeout | HTTP | GraphQL} taxonomy of this package.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, cause: err}
		}
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, Body: string(body)}
	}

	var gr graphqlResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &Error{Kind: KindNetwork, cause: fmt.Errorf("decode response: %w", err)}
	}
	if len(gr.Errors) > 0 && string(gr.Errors) != "null" {
		return nil, &Error{Kind: KindGraphQL, Body: string(gr.Errors)}
	}
	return gr.Data, nil
}
