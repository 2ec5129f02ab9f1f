package rollup

import "sync"

// fanout delivers values to buffered subscriber channels. Sending never
// blocks: a subscriber whose buffer is full misses the value.
type fanout[T any] struct {
	mu     sync.RWMutex
	subs   map[int]*subscription[T]
	next   int
	buffer int
}

type subscription[T any] struct {
	ch     chan T
	accept func(T) bool
}

func newFanout[T any](buffer int) *fanout[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &fanout[T]{subs: make(map[int]*subscription[T]), buffer: buffer}
}

// send offers v to every accepting subscriber and reports how many took it.
func (f *fanout[T]) send(v T) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	delivered := 0
	for _, sub := range f.subs {
		if sub.accept != nil && !sub.accept(v) {
			continue
		}
		select {
		case sub.ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// subscribe registers a channel filtered by accept (nil accepts everything).
// Values returned by initial are queued ahead of anything sent afterwards;
// initial runs while sends are held off. The cancel func is idempotent and
// closes the channel.
func (f *fanout[T]) subscribe(accept func(T) bool, initial func() []T) (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var seed []T
	if initial != nil {
		seed = initial()
	}
	size := f.buffer
	if len(seed) > size {
		size = len(seed) + f.buffer
	}
	sub := &subscription[T]{ch: make(chan T, size), accept: accept}
	for _, v := range seed {
		if accept == nil || accept(v) {
			sub.ch <- v
		}
	}

	id := f.next
	f.next++
	f.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if existing, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(existing.ch)
			}
		})
	}
	return sub.ch, cancel
}

func (f *fanout[T]) len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
