package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// ChangeHook notifies transports (SSE/WebSocket/notifications) about new tile snapshots.
type ChangeHook interface {
	GridUpdated(ctx context.Context, event GridEvent) error
}

// GridEvent describes a new snapshot of a grid's tiles.
type GridEvent struct {
	InstanceID int    `json:"instanceId"`
	Version    uint64 `json:"version"`
	Reason     string `json:"reason"`
	TileIndex  int    `json:"tileIndex,omitempty"`
	Tiles      []Tile `json:"tiles"`
}

// Reasons attached to GridEvent.
const (
	ReasonInit        = "init"
	ReasonLoad        = "load"
	ReasonSettle      = "settle"
	ReasonMenu        = "menu"
	ReasonAggregation = "aggregation"
	ReasonConfig      = "config"
	ReasonRenderError = "render_error"
)

type noopChangeHook struct{}

func (noopChangeHook) GridUpdated(context.Context, GridEvent) error { return nil }

// SnapshotSource supplies the current state of grids to new stream
// subscribers. *Page implements it.
type SnapshotSource interface {
	Snapshots(instanceID int) []GridEvent
}

// InstanceParam is the query parameter that narrows a stream to one grid.
const InstanceParam = "instance"

const streamBuffer = 8

// BroadcastHook streams grid events to in-process subscribers and to SSE or
// WebSocket clients. Each subscriber first receives the current snapshot of
// the grids it follows, then every later change.
type BroadcastHook struct {
	events *fanout[GridEvent]
	source SnapshotSource
}

// NewBroadcastHook creates a hook backed by source. With a nil source new
// subscribers only see changes published after they subscribe.
func NewBroadcastHook(source SnapshotSource) *BroadcastHook {
	return &BroadcastHook{
		events: newFanout[GridEvent](streamBuffer),
		source: source,
	}
}

// GridUpdated implements ChangeHook.
func (h *BroadcastHook) GridUpdated(_ context.Context, event GridEvent) error {
	h.events.send(event)
	return nil
}

// Subscribe returns the events of grid instanceID, or of every grid when 0,
// and a cancel func that closes the channel.
func (h *BroadcastHook) Subscribe(instanceID int) (<-chan GridEvent, func()) {
	var accept func(GridEvent) bool
	if instanceID != 0 {
		accept = func(event GridEvent) bool { return event.InstanceID == instanceID }
	}
	var initial func() []GridEvent
	if h.source != nil {
		initial = func() []GridEvent { return h.source.Snapshots(instanceID) }
	}
	return h.events.subscribe(accept, initial)
}

// Subscribers returns the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	return h.events.len()
}

// Stream hands the events of Subscribe(instanceID) to write until ctx ends,
// the subscription closes or write fails. An event whose version is not newer
// than the last one written for its grid is skipped.
func (h *BroadcastHook) Stream(ctx context.Context, instanceID int, write func(GridEvent) error) error {
	events, cancel := h.Subscribe(instanceID)
	defer cancel()

	seen := make(map[int]uint64)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if last, ok := seen[event.InstanceID]; ok && event.Version <= last {
				continue
			}
			seen[event.InstanceID] = event.Version
			if err := write(event); err != nil {
				return err
			}
		}
	}
}

// ParseInstance reads an instance filter. Empty means every grid.
func ParseInstance(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("rollup: invalid %s %q", InstanceParam, raw)
	}
	return id, nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams grid events as JSON. The
// instance query parameter limits the stream to one grid.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	instanceID, err := ParseInstance(r.URL.Query().Get(InstanceParam))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	_ = h.Stream(ctx, instanceID, func(event GridEvent) error {
		return conn.WriteJSON(event)
	})
}

// ServeSSE streams grid events as Server-Sent Events. The instance query
// parameter limits the stream to one grid.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	instanceID, err := ParseInstance(r.URL.Query().Get(InstanceParam))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	_ = h.Stream(r.Context(), instanceID, func(event GridEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Reason, data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

// NotificationsClient defines the minimal interface needed from an external
// notifications service.
type NotificationsClient interface {
	PublishGridEvent(ctx context.Context, event GridEvent) error
}

// NotificationsHook forwards grid events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Reasons []string
}

// GridUpdated publishes events to the configured client. When Reasons is set
// only matching events are forwarded.
func (h *NotificationsHook) GridUpdated(ctx context.Context, event GridEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 {
		matched := false
		for _, reason := range h.Reasons {
			if reason == event.Reason {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
	}
	return h.Client.PublishGridEvent(ctx, event)
}

// MultiHook invokes every hook in order and returns the first error.
type MultiHook []ChangeHook

// GridUpdated implements ChangeHook.
func (m MultiHook) GridUpdated(ctx context.Context, event GridEvent) error {
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.GridUpdated(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
