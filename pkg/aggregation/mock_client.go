package aggregation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-rollup/components/rollup"
)

// MockData seeds deterministic aggregation results for tests or local demos.
// Responses and Errors are keyed by "<field>" or "<field>:<TYPE>"; the typed
// key wins.
type MockData struct {
	Responses map[string]rollup.AggregateResponse
	Errors    map[string]error
	Delay     time.Duration
}

// MockClient implements rollup.AggregationService using in-memory fixtures.
type MockClient struct {
	data MockData
	mu   sync.RWMutex
	reqs []rollup.AggregateRequest
}

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data}
}

var _ rollup.AggregationService = (*MockClient)(nil)

// Aggregate returns the fixture for the request's field. Unknown fields
// produce a nil response.
func (c *MockClient) Aggregate(ctx context.Context, req rollup.AggregateRequest) (*rollup.AggregateResponse, error) {
	c.mu.Lock()
	c.reqs = append(c.reqs, req)
	delay := c.data.Delay
	c.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range fixtureKeys(req) {
		if err, ok := c.data.Errors[key]; ok {
			return nil, err
		}
		if resp, ok := c.data.Responses[key]; ok {
			return cloneResponse(resp), nil
		}
	}
	return nil, nil
}

// Set replaces the fixture for key.
func (c *MockClient) Set(key string, resp rollup.AggregateResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data.Responses == nil {
		c.data.Responses = map[string]rollup.AggregateResponse{}
	}
	c.data.Responses[key] = resp
}

// Requests returns the requests received so far.
func (c *MockClient) Requests() []rollup.AggregateRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]rollup.AggregateRequest(nil), c.reqs...)
}

func fixtureKeys(req rollup.AggregateRequest) []string {
	field := strings.TrimSpace(req.AggregateFieldAPIName)
	return []string{field + ":" + strings.ToUpper(req.AggregateType), field}
}

func cloneResponse(resp rollup.AggregateResponse) *rollup.AggregateResponse {
	out := resp
	if resp.RecordCount != nil {
		count := *resp.RecordCount
		out.RecordCount = &count
	}
	return &out
}
