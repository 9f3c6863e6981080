package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// collector gathers timer callbacks for assertions.
type collector struct {
	mu      sync.Mutex
	ticks   []int
	expires int
	done    chan struct{}
}

func newCollector() *collector {
	return &collector{done: make(chan struct{})}
}

func (c *collector) onTick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = append(c.ticks, remaining)
}

func (c *collector) onExpire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires++
	close(c.done)
}

func (c *collector) snapshot() ([]int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticks := make([]int, len(c.ticks))
	copy(ticks, c.ticks)
	return ticks, c.expires
}

func TestTimerTicksDownAndExpiresOnce(t *testing.T) {
	c := newCollector()
	timer := NewDeadlineTimerInterval(5 * time.Millisecond)

	require.NoError(t, timer.Start(5, c.onTick, c.onExpire))

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not expire")
	}

	ticks, expires := c.snapshot()
	require.Equal(t, []int{4, 3, 2, 1, 0}, ticks)
	require.Equal(t, 1, expires)

	// No further callbacks after expiry.
	time.Sleep(50 * time.Millisecond)
	ticks, expires = c.snapshot()
	require.Equal(t, []int{4, 3, 2, 1, 0}, ticks)
	require.Equal(t, 1, expires)
}

func TestTimerCancelPreventsExpiry(t *testing.T) {
	c := newCollector()
	timer := NewDeadlineTimerInterval(5 * time.Millisecond)

	require.NoError(t, timer.Start(1000, c.onTick, c.onExpire))

	// Let a few ticks land, then cancel.
	time.Sleep(30 * time.Millisecond)
	timer.Cancel()

	ticks, _ := c.snapshot()

	// Cancel returns only once any in-flight callback finished, so the
	// tick log is frozen from here on.
	time.Sleep(50 * time.Millisecond)
	laterTicks, expires := c.snapshot()
	require.Equal(t, ticks, laterTicks)
	require.Zero(t, expires)
}

func TestTimerCancelBeforeFirstTick(t *testing.T) {
	c := newCollector()
	timer := NewDeadlineTimerInterval(20 * time.Millisecond)

	require.NoError(t, timer.Start(3, c.onTick, c.onExpire))
	timer.Cancel()

	time.Sleep(100 * time.Millisecond)
	ticks, expires := c.snapshot()
	require.Empty(t, ticks)
	require.Zero(t, expires)
}

func TestTimerDoubleStart(t *testing.T) {
	timer := NewDeadlineTimerInterval(time.Millisecond)
	defer timer.Cancel()

	require.NoError(t, timer.Start(1000, nil, nil))
	require.ErrorIs(t, timer.Start(1000, nil, nil), ErrTimerStarted)
}

func TestTimerZeroDurationExpiresImmediately(t *testing.T) {
	c := newCollector()
	timer := NewDeadlineTimerInterval(5 * time.Millisecond)

	require.NoError(t, timer.Start(0, c.onTick, c.onExpire))

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}

	ticks, expires := c.snapshot()
	require.Empty(t, ticks)
	require.Equal(t, 1, expires)
}
