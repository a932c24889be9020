package placements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobProcessorSweepsOnTick(t *testing.T) {
	a := newTestAllocator(t, nil)
	ctx := context.Background()

	_, err := a.SubmitClaim(ctx, newClaim("header", alice, "0.10", 1))
	require.NoError(t, err)
	_, err = a.SubmitClaim(ctx, newClaim("footer", bob, "0.20", 1))
	require.NoError(t, err)

	jp := NewJobProcessor(a, &JobConfig{SweepInterval: time.Minute}, a.clock)
	jp.Start(ctx)
	defer jp.Stop()

	require.Eventually(t, func() bool {
		a.clock.Add(time.Minute)
		ids, err := a.store.SlotIDs(ctx)
		return err == nil && len(ids) == 0
	}, 2*time.Second, 10*time.Millisecond)

	types := a.events.types()
	assert.Contains(t, types, EventPlacementExpired)

	require.Eventually(t, func() bool {
		_, swept := jp.GetJobStatus()["last_sweep"]
		return swept
	}, 2*time.Second, 10*time.Millisecond)
	status := jp.GetJobStatus()
	assert.Equal(t, "running", status["status"])
	assert.NotContains(t, status, "last_error")
}

func TestJobProcessorStopIsIdempotent(t *testing.T) {
	a := newTestAllocator(t, nil)
	jp := NewJobProcessor(a, nil, a.clock)
	jp.Start(context.Background())

	jp.Stop()
	jp.Stop()

	status := jp.GetJobStatus()
	assert.Equal(t, "1m0s", status["sweep_interval"])
	assert.Equal(t, "stopped", status["status"])
}

func TestJobProcessorRejectsNonPositiveInterval(t *testing.T) {
	a := newTestAllocator(t, nil)

	for _, interval := range []time.Duration{0, -time.Second} {
		jp := NewJobProcessor(a, &JobConfig{SweepInterval: interval}, a.clock)
		assert.Equal(t, time.Minute, jp.config.SweepInterval)

		assert.NotPanics(t, func() { jp.Start(context.Background()) })
		jp.Stop()
	}
}

func TestJobProcessorExitsWithContext(t *testing.T) {
	a := newTestAllocator(t, nil)
	jp := NewJobProcessor(a, nil, a.clock)

	ctx, cancel := context.WithCancel(context.Background())
	jp.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		jp.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not exit after context cancellation")
	}
}
