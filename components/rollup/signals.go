package rollup

import "context"

// SignalKind discriminates page-wide coordination signals.
type SignalKind string

const (
	SignalRefresh    SignalKind = "refresh"
	SignalCloseMenus SignalKind = "close_menus"
)

// Signal is a page-wide coordination message. The set of variants is closed:
// RefreshSignal and CloseMenusSignal.
type Signal interface {
	Kind() SignalKind
}

// RefreshSignal asks every grid bound to SourceRecordID (or every grid when
// empty) to reload its tiles.
type RefreshSignal struct {
	SourceRecordID string `json:"sourceRecordId"`
}

// Kind implements Signal.
func (RefreshSignal) Kind() SignalKind { return SignalRefresh }

// CloseMenusSignal asks every other grid to close its open dropdown menus.
type CloseMenusSignal struct {
	OriginInstanceID int `json:"originInstanceId"`
}

// Kind implements Signal.
func (CloseMenusSignal) Kind() SignalKind { return SignalCloseMenus }

// SignalBus is the page-scoped broadcast/subscribe channel shared by grids.
// Delivery is fire-and-forget.
type SignalBus interface {
	Publish(ctx context.Context, signal Signal) error
	Subscribe() (<-chan Signal, func())
}

const signalBuffer = 16

// Broadcaster is the in-process SignalBus. Slow subscribers miss signals
// instead of blocking publishers.
type Broadcaster struct {
	signals *fanout[Signal]
}

// NewBroadcaster creates an empty bus.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{signals: newFanout[Signal](signalBuffer)}
}

// Publish implements SignalBus.
func (b *Broadcaster) Publish(_ context.Context, signal Signal) error {
	if signal == nil {
		return nil
	}
	b.signals.send(signal)
	return nil
}

// Subscribe implements SignalBus. The returned cancel func closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Signal, func()) {
	return b.signals.subscribe(nil, nil)
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	return b.signals.len()
}
