package rollup

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves the clock forward and runs due timers synchronously.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && timer.at <= c.now {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, timer := range due {
		timer.fn()
	}
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type recordingHook struct {
	mu     sync.Mutex
	events []GridEvent
}

func (h *recordingHook) GridUpdated(_ context.Context, event GridEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, event := range h.events {
		out = append(out, event.Reason)
	}
	return out
}

func (h *recordingHook) last() GridEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return GridEvent{}
	}
	return h.events[len(h.events)-1]
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// countingService answers every request with the configured response and
// keeps a log of what it was asked.
type countingService struct {
	mu       sync.Mutex
	requests []AggregateRequest
	respond  func(req AggregateRequest) (*AggregateResponse, error)
}

func (s *countingService) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	respond := s.respond
	s.mu.Unlock()
	if respond == nil {
		count := 1
		return &AggregateResponse{Value: 1.0, RecordCount: &count}, nil
	}
	return respond(req)
}

func (s *countingService) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *countingService) callsFor(parentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.ParentID == parentID {
			n++
		}
	}
	return n
}

func (s *countingService) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *countingService) last() AggregateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func debugLogger(buf *lockedBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func opportunityConfig(recordID string) GridConfig {
	return GridConfig{
		RecordID: recordID,
		RelationshipConfig: RelationshipConfig{
			ChildObject:       "Opportunity",
			RelationshipField: "AccountId",
		},
		Rows:    1,
		Columns: 3,
		Tiles: []TileConfig{
			{Index: 1, AggregateField: "Amount", InitialAggregation: "SUM"},
			{Index: 2, AggregateField: "Amount", InitialAggregation: "COUNT"},
			{Index: 3, AggregateField: "CloseDate", InitialAggregation: "MAX"},
		},
	}
}

func waitGrid(t *testing.T, grid *Grid) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := grid.Wait(ctx); err != nil {
		t.Fatalf("grid did not settle: %v", err)
	}
}

func intPtr(v int) *int {
	return &v
}
