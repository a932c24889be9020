package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adslot/internal/shared/constants"
	"adslot/pkg/cache"
	"adslot/pkg/metrics"
)

type Service interface {
	Track(ctx context.Context, kind Kind, req TrackRequest, clientIP string) (*AdEvent, error)
	GetSlotSummary(ctx context.Context, slotID string, days int) (*SlotSummary, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	now          func() time.Time
}

// NewService creates the analytics service. cacheService may be nil.
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cacheService: cacheService, now: time.Now}
}

func (s *service) Track(ctx context.Context, kind Kind, req TrackRequest, clientIP string) (*AdEvent, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("kind %q: %w", kind, ErrInvalidEvent)
	}
	if kind == KindError && strings.TrimSpace(req.Error) == "" {
		return nil, fmt.Errorf("error events need an error message: %w", ErrInvalidEvent)
	}

	occurred := s.now().UTC()
	if req.Timestamp > 0 {
		reported := time.UnixMilli(req.Timestamp).UTC()
		// Client clocks are only trusted when they are not in the future.
		if !reported.After(occurred) {
			occurred = reported
		}
	}

	event := &AdEvent{
		SlotID:     req.SlotIndex,
		Kind:       kind,
		ContentRef: req.IPFSHash,
		Error:      req.Error,
		PageURL:    req.URL,
		Referrer:   req.Referrer,
		UserAgent:  req.UserAgent,
		ClientIP:   clientIP,
		OccurredAt: occurred,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record %s event: %w", kind, err)
	}
	metrics.AdInteractions.WithLabelValues(string(kind)).Inc()
	return event, nil
}

func (s *service) GetSlotSummary(ctx context.Context, slotID string, days int) (*SlotSummary, error) {
	if days <= 0 {
		days = 7
	}
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	fetch := func() (interface{}, error) {
		summary, err := s.repo.GetSlotSummary(ctx, slotID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to get slot analytics: %w", err)
		}
		return summary, nil
	}

	if s.cacheService == nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*SlotSummary), nil
	}

	var summary SlotSummary
	key := fmt.Sprintf("%s:days:%d", constants.BuildAnalyticsSlotKey(slotID), days)
	if err := s.cacheService.GetOrSet(ctx, key, constants.TTL_ANALYTICS_SLOT, fetch, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
