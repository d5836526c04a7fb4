package forkjoin

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

func TestDequeOwnerLIFOThiefFIFO(t *testing.T) {
	d := newDeque(8)
	frames := make([]Frame, 3)
	for i := range frames {
		d.pushBottom(&frames[i])
	}
	require.Equal(t, 3, d.size())

	f, ok := d.popBottom()
	require.True(t, ok)
	require.Same(t, &frames[2], f)

	f, ok = d.stealTop()
	require.True(t, ok)
	require.Same(t, &frames[0], f)
	require.True(t, f.isStolen())

	f, ok = d.popBottom()
	require.True(t, ok)
	require.Same(t, &frames[1], f)
	require.True(t, d.isEmpty())
}

func TestDequeEmpty(t *testing.T) {
	d := newDeque(4)

	_, ok := d.popBottom()
	require.False(t, ok)
	_, ok = d.stealTop()
	require.False(t, ok)
	require.True(t, d.isEmpty())
	require.Equal(t, 0, d.size())
}

func TestDequeReusesSlots(t *testing.T) {
	d := newDeque(2)
	var frames [8]Frame
	for i := range frames {
		d.pushBottom(&frames[i])
		f, ok := d.popBottom()
		require.True(t, ok)
		require.Same(t, &frames[i], f)
	}
}

func TestDequeOverflowPanics(t *testing.T) {
	d := newDeque(2)
	var frames [3]Frame
	d.pushBottom(&frames[0])
	d.pushBottom(&frames[1])

	require.PanicsWithValue(t, "forkjoin: deque overflow", func() {
		d.pushBottom(&frames[2])
	})
}

// TestDequeLinearizable hammers one owner and several thieves on a single
// deque and checks that every pushed frame is returned exactly once.
func TestDequeLinearizable(t *testing.T) {
	const n = 20000
	const thieves = 3

	d := newDeque(n)
	frames := make([]Frame, n)
	seen := make([]atomic.Int32, n)
	var stop atomic.Bool

	var g errgroup.Group
	for i := 0; i < thieves; i++ {
		g.Go(func() error {
			for !stop.Load() {
				if f, ok := d.stealTop(); ok {
					seen[f.payload[0]].Inc()
				} else {
					runtime.Gosched()
				}
			}
			return nil
		})
	}

	// Owner: push everything, popping a frame back every few pushes to
	// exercise the last-element race.
	for i := 0; i < n; i++ {
		frames[i].payload[0] = uint64(i)
		d.pushBottom(&frames[i])
		if i%3 == 2 {
			if f, ok := d.popBottom(); ok {
				seen[f.payload[0]].Inc()
			}
		}
	}
	for !d.isEmpty() {
		if f, ok := d.popBottom(); ok {
			seen[f.payload[0]].Inc()
		}
	}

	stop.Store(true)
	require.NoError(t, g.Wait())

	for i := 0; i < n; i++ {
		require.Equal(t, int32(1), seen[i].Load(), "frame %d", i)
	}
}
