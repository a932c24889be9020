package slots

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adslot/pkg/cache"
)

const publisher = "0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32"

type fakeRepository struct {
	mu    sync.Mutex
	slots map[string]AdSlot
	reads int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{slots: make(map[string]AdSlot)}
}

func (f *fakeRepository) Create(_ context.Context, slot *AdSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.slots[slot.SlotID]; ok {
		return ErrSlotExists
	}
	f.slots[slot.SlotID] = *slot
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, slotID string) (*AdSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	slot, ok := f.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &slot, nil
}

func (f *fakeRepository) GetAll(_ context.Context, query SlotListQuery) ([]AdSlot, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	var out []AdSlot
	for _, s := range f.slots {
		if query.Category != "" && s.Category != query.Category {
			continue
		}
		if query.Size != "" && s.Size != query.Size {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	total := int64(len(out))
	start := (query.Page - 1) * query.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + query.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeRepository) Delete(_ context.Context, slotID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.slots[slotID]; !ok {
		return ErrSlotNotFound
	}
	delete(f.slots, slotID)
	return nil
}

func newCachedService(t *testing.T, repo Repository) Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, cache.NewService(client))
}

func bannerRequest(id string) CreateSlotRequest {
	return CreateSlotRequest{
		SlotID:          id,
		Identifier:      "Header banner",
		Size:            SizeBanner,
		BasePrice:       "0.25",
		DurationOptions: []string{"1h", "6h", "24h"},
		Category:        "technology",
	}
}

func TestCreateSlot(t *testing.T) {
	svc := NewService(newFakeRepository(), nil)
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, publisher, bannerRequest("header"))
	require.NoError(t, err)
	assert.Equal(t, 728, slot.Width)
	assert.Equal(t, 90, slot.Height)
	assert.Equal(t, "0.25", slot.BasePrice)
	assert.Equal(t, []int{60, 360, 1440}, slot.DurationMinutes)
	assert.Equal(t, "0x6d63C3DD44983CddEeA8cB2e730b82daE2E91E32", slot.PublisherWallet)

	_, err = svc.CreateSlot(ctx, publisher, bannerRequest("header"))
	assert.ErrorIs(t, err, ErrSlotExists)
}

func TestCreateSlotValidation(t *testing.T) {
	svc := NewService(newFakeRepository(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateSlotRequest)
		caller string
	}{
		{"zero price", func(r *CreateSlotRequest) { r.BasePrice = "0" }, publisher},
		{"price not a number", func(r *CreateSlotRequest) { r.BasePrice = "free" }, publisher},
		{"caller is not a wallet", func(r *CreateSlotRequest) {}, "publisher-1"},
		{"custom without dimensions", func(r *CreateSlotRequest) { r.Size = SizeCustom }, publisher},
		{"bad duration option", func(r *CreateSlotRequest) { r.DurationOptions = []string{"forever"} }, publisher},
		{"sub-minute duration option", func(r *CreateSlotRequest) { r.DurationOptions = []string{"90s"} }, publisher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bannerRequest("header")
			tt.mutate(&req)
			_, err := svc.CreateSlot(ctx, tt.caller, req)
			assert.ErrorIs(t, err, ErrInvalidSlot)
		})
	}

	req := bannerRequest("custom")
	req.Size, req.Width, req.Height = SizeCustom, 970, 250
	slot, err := svc.CreateSlot(ctx, "publisher-1", withWallet(req, publisher))
	require.NoError(t, err)
	assert.Equal(t, 970, slot.Width)
}

func withWallet(req CreateSlotRequest, wallet string) CreateSlotRequest {
	req.PublisherWallet = wallet
	return req
}

func TestGetSlotIsCached(t *testing.T) {
	repo := newFakeRepository()
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.CreateSlot(ctx, publisher, bannerRequest("header"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		slot, err := svc.GetSlot(ctx, "header")
		require.NoError(t, err)
		assert.True(t, slot.BasePrice.Equal(decimal.RequireFromString("0.25")))
	}
	assert.Equal(t, 1, repo.reads)

	_, err = svc.GetSlot(ctx, "missing")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestListSlotsPagination(t *testing.T) {
	repo := newFakeRepository()
	svc := newCachedService(t, repo)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.CreateSlot(ctx, publisher, bannerRequest(id))
		require.NoError(t, err)
	}

	page, err := svc.ListSlots(ctx, SlotListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Slots, 2)

	// Creating a slot drops cached listings.
	_, err = svc.CreateSlot(ctx, publisher, bannerRequest("d"))
	require.NoError(t, err)
	page, err = svc.ListSlots(ctx, SlotListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 20, page.Limit)

	filtered, err := svc.ListSlots(ctx, SlotListQuery{Category: "sports"})
	require.NoError(t, err)
	assert.Empty(t, filtered.Slots)
}

func TestDeleteSlot(t *testing.T) {
	repo := newFakeRepository()
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.CreateSlot(ctx, publisher, bannerRequest("header"))
	require.NoError(t, err)
	_, err = svc.GetSlot(ctx, "header")
	require.NoError(t, err)

	err = svc.DeleteSlot(ctx, "header", "0x1111111111111111111111111111111111111111", false)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteSlot(ctx, "header", "0x6D63C3DD44983CDDEEA8CB2E730B82DAE2E91E32", false))
	_, err = svc.GetSlot(ctx, "header")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	err = svc.DeleteSlot(ctx, "header", publisher, true)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestLookupBasePrice(t *testing.T) {
	svc := NewService(newFakeRepository(), nil)
	ctx := context.Background()

	_, found, err := svc.LookupBasePrice(ctx, "header")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.CreateSlot(ctx, publisher, bannerRequest("header"))
	require.NoError(t, err)
	price, found, err := svc.LookupBasePrice(ctx, "header")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0.25", price.String())
}

func TestAllowsDuration(t *testing.T) {
	slot := &AdSlot{DurationOptions: StringList{"30m", "1h"}}
	assert.True(t, slot.AllowsDuration(30))
	assert.True(t, slot.AllowsDuration(60))
	assert.False(t, slot.AllowsDuration(45))

	open := &AdSlot{}
	assert.True(t, open.AllowsDuration(45))
	assert.False(t, open.AllowsDuration(0))

	broken := &AdSlot{DurationOptions: StringList{"soon"}}
	assert.False(t, broken.AllowsDuration(60))
}
