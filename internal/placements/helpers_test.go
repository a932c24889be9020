package placements

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raulk/clock"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	carol = "0x3333333333333333333333333333333333333333"
	dave  = "0x4444444444444444444444444444444444444444"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []PlacementEvent
	err    error
}

func (r *recordingPublisher) PublishPlacementEvent(_ context.Context, event PlacementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// flakyStore wraps a Store and fails on demand.
type flakyStore struct {
	Store
	mu       sync.Mutex
	failLoad bool
	failSave bool
	hang     bool
	saves    int
}

var errBackendDown = errors.New("backend down")

func (f *flakyStore) set(load, save, hang bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failLoad, f.failSave, f.hang = load, save, hang
}

func (f *flakyStore) Load(ctx context.Context, slotID string) (*SlotRecord, error) {
	f.mu.Lock()
	fail, hang := f.failLoad, f.hang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, errBackendDown
	}
	return f.Store.Load(ctx, slotID)
}

func (f *flakyStore) Save(ctx context.Context, record *SlotRecord) error {
	f.mu.Lock()
	fail := f.failSave
	f.saves++
	f.mu.Unlock()
	if fail {
		return errBackendDown
	}
	return f.Store.Save(ctx, record)
}

type testAllocator struct {
	Allocator
	clock  *clock.Mock
	store  Store
	events *recordingPublisher
}

func newTestAllocator(t *testing.T, store Store) *testAllocator {
	t.Helper()
	if store == nil {
		store = NewMemoryStore()
	}
	clk := clock.NewMock()
	clk.Set(testStart)

	events := &recordingPublisher{}
	return &testAllocator{
		Allocator: newAllocatorWith(store, NewKeyedLocker(), events, clk),
		clock:     clk,
		store:     store,
		events:    events,
	}
}

func testCatalog() *StaticCatalog {
	return NewStaticCatalog(map[string]string{
		"header": "0.10",
		"footer": "0.20",
		"square": "0.15",
	})
}

func newAllocatorWith(store Store, locker Locker, events EventPublisher, clk clock.Clock) Allocator {
	config := DefaultAllocatorConfig()
	config.Clock = clk
	config.StoreTimeout = 200 * time.Millisecond
	return NewAllocator(store, locker, testCatalog(), events, config)
}

// blockingPublisher holds the first publish until release is closed.
type blockingPublisher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingPublisher) PublishPlacementEvent(ctx context.Context, _ PlacementEvent) error {
	if b.calls.Add(1) == 1 {
		close(b.entered)
		select {
		case <-b.release:
		case <-ctx.Done():
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func newClaim(slotID, bidder, price string, minutes int) Claim {
	return Claim{
		SlotID:          slotID,
		BidderAddress:   bidder,
		ContentRef:      "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy",
		Price:           price,
		DurationMinutes: minutes,
	}
}

func bidClaim(slotID, bidder, price, bid string, minutes int) Claim {
	c := newClaim(slotID, bidder, price, minutes)
	c.BidAmount = strPtr(bid)
	return c
}
