package placements

import (
	"context"
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsOperations(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(testStart)
	slots := NewSlots(NewMemoryStore(), clk)

	active, err := slots.GetActive(ctx, "header")
	require.NoError(t, err)
	assert.Nil(t, active)

	p := placementAt("a", "0.30", testStart)
	require.NoError(t, p.activate(testStart))
	require.NoError(t, slots.SetActive(ctx, "header", p))
	require.NoError(t, slots.PushQueued(ctx, "header", placementAt("low", "0.20", testStart)))
	require.NoError(t, slots.PushQueued(ctx, "header", placementAt("high", "0.50", testStart)))

	active, err = slots.GetActive(ctx, "header")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "a", active.PlacementID)

	queue, err := slots.GetQueue(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low"}, queueIDs(queue))

	head, err := slots.PopQueueHead(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "high", head.PlacementID)

	// Expired occupants read as absent without being removed.
	clk.Add(30 * time.Minute)
	active, err = slots.GetActive(ctx, "header")
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, slots.ClearActive(ctx, "header"))
	head, err = slots.PopQueueHead(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "low", head.PlacementID)

	head, err = slots.PopQueueHead(ctx, "header")
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestSlotsWrapStoreFailures(t *testing.T) {
	store := &flakyStore{Store: NewMemoryStore()}
	store.set(true, false, false)
	slots := NewSlots(store, nil)

	_, err := slots.GetQueue(context.Background(), "header")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	err = slots.ClearActive(context.Background(), "header")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
