package aggregation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-rollup/components/rollup"
)

// HTTPConfig configures the HTTP aggregation client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient calls a remote aggregation endpoint over REST.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client for the aggregation API rooted at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("aggregation: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ rollup.AggregationService = (*HTTPClient)(nil)

// Aggregate implements rollup.AggregationService. An empty body or 204 means
// no data and yields a nil response.
func (c *HTTPClient) Aggregate(ctx context.Context, query rollup.AggregateRequest) (*rollup.AggregateResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("aggregation: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/aggregate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("aggregation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregation: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("aggregation: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, remoteError(resp.StatusCode, data)
	}
	trimmed := bytes.TrimSpace(data)
	if resp.StatusCode == http.StatusNoContent || len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	var out rollup.AggregateResponse
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("aggregation: decode response: %w", err)
	}
	return &out, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// remoteError prefers the structured message of an error body and falls back
// to its raw text.
func remoteError(status int, data []byte) error {
	svcErr := &rollup.ServiceError{Status: status}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		svcErr.Message = strings.TrimSpace(body.Message)
		if svcErr.Message == "" {
			svcErr.Message = strings.TrimSpace(body.Error)
		}
		return svcErr
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		svcErr.Err = errors.New(text)
	}
	return svcErr
}
