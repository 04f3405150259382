package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/types"
)

func TestCoalescerCollapsesBurst(t *testing.T) {
	c := newCoalescer(5 * time.Second)
	start := time.Now()

	// A beatmap extraction hammers the same path
	for i := 0; i < 100; i++ {
		c.Add("/songs/1 - artist", types.EventModified, start.Add(time.Duration(i)*time.Millisecond))
	}
	assert.Equal(t, 1, c.Len())

	// Nothing fires while the path is still hot
	assert.Empty(t, c.Flush(start.Add(time.Second)))

	events := c.Flush(start.Add(6 * time.Second))
	require.Len(t, events, 1)
	assert.Equal(t, "/songs/1 - artist", events[0].Path)
	assert.Equal(t, types.EventModified, events[0].Kind)
	assert.Zero(t, c.Len())
}

func TestCoalescerSpreadEventsFireSeparately(t *testing.T) {
	c := newCoalescer(time.Second)
	start := time.Now()

	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("/songs/%d", i), types.EventModified, start)
	}

	events := c.Flush(start.Add(2 * time.Second))
	assert.Len(t, events, 5)
}

func TestCoalescerCreateThenDeleteCancels(t *testing.T) {
	c := newCoalescer(time.Second)
	start := time.Now()

	c.Add("/songs/tmp-map", types.EventCreated, start)
	c.Add("/songs/tmp-map", types.EventDeleted, start.Add(100*time.Millisecond))

	assert.Zero(t, c.Len())
	assert.Empty(t, c.Flush(start.Add(5*time.Second)))
}

func TestCoalescerCreateThenModifyStaysCreate(t *testing.T) {
	c := newCoalescer(time.Second)
	start := time.Now()

	c.Add("/songs/new-map", types.EventCreated, start)
	c.Add("/songs/new-map", types.EventModified, start.Add(100*time.Millisecond))
	c.Add("/songs/new-map", types.EventModified, start.Add(200*time.Millisecond))

	events := c.Flush(start.Add(2 * time.Second))
	require.Len(t, events, 1)
	assert.Equal(t, types.EventCreated, events[0].Kind)
}

func TestCoalescerLatestKindWins(t *testing.T) {
	c := newCoalescer(time.Second)
	start := time.Now()

	c.Add("/songs/map", types.EventModified, start)
	c.Add("/songs/map", types.EventDeleted, start.Add(100*time.Millisecond))

	events := c.Flush(start.Add(2 * time.Second))
	require.Len(t, events, 1)
	assert.Equal(t, types.EventDeleted, events[0].Kind)
}

func TestCoalescerWindowRestartsOnActivity(t *testing.T) {
	c := newCoalescer(time.Second)
	start := time.Now()

	c.Add("/songs/map", types.EventModified, start)
	// Activity at 900ms pushes the quiet window out
	c.Add("/songs/map", types.EventModified, start.Add(900*time.Millisecond))

	assert.Empty(t, c.Flush(start.Add(1500*time.Millisecond)))
	assert.Len(t, c.Flush(start.Add(2*time.Second)), 1)
}
