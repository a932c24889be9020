package slots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"adslot/internal/shared/constants"
	"adslot/internal/shared/validation"
	"adslot/pkg/cache"
	"adslot/pkg/logger"
)

type Service interface {
	CreateSlot(ctx context.Context, publisher string, req CreateSlotRequest) (*SlotResponse, error)
	GetSlot(ctx context.Context, slotID string) (*AdSlot, error)
	ListSlots(ctx context.Context, query SlotListQuery) (*PaginatedSlots, error)
	DeleteSlot(ctx context.Context, slotID, publisher string, isAdmin bool) error

	// LookupBasePrice lets the placement allocator check bids against the
	// slot floor without depending on this package.
	LookupBasePrice(ctx context.Context, slotID string) (decimal.Decimal, bool, error)
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *logger.Logger
}

// NewService builds the slot registry. cacheService may be nil.
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cache: cacheService, log: logger.GetDefault()}
}

func (s *service) CreateSlot(ctx context.Context, publisher string, req CreateSlotRequest) (*SlotResponse, error) {
	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil || !basePrice.IsPositive() {
		return nil, fmt.Errorf("base price must be a positive decimal: %w", ErrInvalidSlot)
	}

	wallet := req.PublisherWallet
	if wallet == "" {
		wallet = publisher
	}
	if !validation.IsEVMAddress(wallet) {
		return nil, fmt.Errorf("publisher wallet %q is not an address: %w", wallet, ErrInvalidSlot)
	}

	width, height := req.Width, req.Height
	if width == 0 || height == 0 {
		width, height = req.Size.DefaultDimensions()
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("custom slots need width and height: %w", ErrInvalidSlot)
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = req.SlotID
	}

	slot := &AdSlot{
		SlotID:          req.SlotID,
		Identifier:      identifier,
		Size:            req.Size,
		Width:           width,
		Height:          height,
		BasePrice:       basePrice,
		DurationOptions: StringList(req.DurationOptions),
		Category:        strings.TrimSpace(req.Category),
		WebsiteURL:      req.WebsiteURL,
		PublisherWallet: validation.ChecksumAddress(wallet),
	}
	if _, err := slot.DurationMinutes(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		if errors.Is(err, ErrSlotExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	s.invalidate(ctx, "")

	response := slot.ToResponse()
	return &response, nil
}

func (s *service) GetSlot(ctx context.Context, slotID string) (*AdSlot, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, slotID)
	}

	var slot AdSlot
	err := s.cache.GetOrSet(ctx, constants.BuildSlotDetailKey(slotID), constants.TTL_SLOT_DETAIL,
		func() (interface{}, error) {
			return s.repo.GetByID(ctx, slotID)
		}, &slot)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (s *service) ListSlots(ctx context.Context, query SlotListQuery) (*PaginatedSlots, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	fetch := func() (interface{}, error) {
		slots, total, err := s.repo.GetAll(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list slots: %w", err)
		}
		page := &PaginatedSlots{
			Slots:      make([]SlotResponse, 0, len(slots)),
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
		}
		for i := range slots {
			page.Slots = append(page.Slots, slots[i].ToResponse())
		}
		return page, nil
	}

	filtered := query.Category != "" || query.Size != "" || query.Publisher != ""
	if s.cache == nil || filtered {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*PaginatedSlots), nil
	}

	var page PaginatedSlots
	if err := s.cache.GetOrSet(ctx, constants.BuildSlotListKey(query.Page, query.Limit), constants.TTL_SLOTS_LIST, fetch, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *service) DeleteSlot(ctx context.Context, slotID, publisher string, isAdmin bool) error {
	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if !isAdmin && !strings.EqualFold(slot.PublisherWallet, publisher) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, slotID); err != nil {
		return err
	}
	s.invalidate(ctx, slotID)
	return nil
}

func (s *service) LookupBasePrice(ctx context.Context, slotID string) (decimal.Decimal, bool, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if errors.Is(err, ErrSlotNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return slot.BasePrice, true, nil
}

func (s *service) invalidate(ctx context.Context, slotID string) {
	if s.cache == nil {
		return
	}
	if slotID != "" {
		if err := s.cache.Delete(ctx, constants.BuildSlotDetailKey(slotID)); err != nil {
			s.log.Warn("Failed to invalidate slot cache", "slot_id", slotID, "error", err.Error())
		}
	}
	if err := s.cache.DeletePattern(ctx, constants.CACHE_KEY_SLOTS_LIST+"*"); err != nil {
		s.log.Warn("Failed to invalidate slot list cache", "error", err.Error())
	}
}
