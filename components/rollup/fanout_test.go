package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutQueuesInitialValuesFirst(t *testing.T) {
	f := newFanout[int](2)
	evens, cancel := f.subscribe(func(v int) bool { return v%2 == 0 }, func() []int { return []int{1, 2, 4, 6} })
	defer cancel()

	require.Len(t, evens, 3, "initial values larger than the buffer are kept")
	assert.Equal(t, 1, f.send(8))
	assert.Equal(t, 0, f.send(9))

	var got []int
	for len(evens) > 0 {
		got = append(got, <-evens)
	}
	assert.Equal(t, []int{2, 4, 6, 8}, got)
}

func TestFanoutDropsForFullSubscribers(t *testing.T) {
	f := newFanout[string](0)
	ch, cancel := f.subscribe(nil, nil)

	assert.Equal(t, 1, f.send("a"))
	assert.Equal(t, 0, f.send("b"))
	assert.Equal(t, "a", <-ch)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, f.len())
	assert.Zero(t, f.send("c"))
}
