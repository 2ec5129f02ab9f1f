package rollup

import (
	"context"
	"testing"
)

func TestBroadcasterDeliversToEverySubscriber(t *testing.T) {
	bus := NewBroadcaster()
	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelSecond()

	if err := bus.Publish(context.Background(), RefreshSignal{SourceRecordID: "001"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	for _, ch := range []<-chan Signal{first, second} {
		signal := <-ch
		refresh, ok := signal.(RefreshSignal)
		if !ok || refresh.SourceRecordID != "001" {
			t.Fatalf("unexpected signal %#v", signal)
		}
		if signal.Kind() != SignalRefresh {
			t.Fatalf("unexpected kind %q", signal.Kind())
		}
	}

	cancelFirst()
	cancelFirst()
	if _, ok := <-first; ok {
		t.Fatalf("expected cancelled subscription to be closed")
	}
	if bus.Subscribers() != 1 {
		t.Fatalf("expected one subscriber left, got %d", bus.Subscribers())
	}
}

func TestBroadcasterDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBroadcaster()
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < signalBuffer+5; i++ {
		_ = bus.Publish(context.Background(), CloseMenusSignal{OriginInstanceID: i})
	}
	if len(ch) != signalBuffer {
		t.Fatalf("expected %d buffered signals, got %d", signalBuffer, len(ch))
	}
	first := (<-ch).(CloseMenusSignal)
	if first.OriginInstanceID != 0 || first.Kind() != SignalCloseMenus {
		t.Fatalf("unexpected first signal %#v", first)
	}
}

func TestBroadcasterIgnoresNilSignals(t *testing.T) {
	bus := NewBroadcaster()
	ch, cancel := bus.Subscribe()
	defer cancel()
	if err := bus.Publish(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch) != 0 {
		t.Fatalf("nil signal should not be delivered")
	}
}
