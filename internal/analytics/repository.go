package analytics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *AdEvent) error
	GetSlotSummary(ctx context.Context, slotID string, since time.Time) (*SlotSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *AdEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetSlotSummary(ctx context.Context, slotID string, since time.Time) (*SlotSummary, error) {
	summary := &SlotSummary{SlotID: slotID, Daily: []DayStats{}}

	var totals []kindCount
	err := r.db.WithContext(ctx).Model(&AdEvent{}).
		Select("kind, COUNT(*) as count").
		Where("slot_id = ?", slotID).
		Group("kind").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		switch t.Kind {
		case KindView:
			summary.Views = t.Count
		case KindClick:
			summary.Clicks = t.Count
		case KindError:
			summary.Errors = t.Count
		}
	}
	if summary.Views > 0 {
		summary.ClickThrough = float64(summary.Clicks) / float64(summary.Views)
	}

	var last AdEvent
	err = r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Order("occurred_at DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return nil, err
	}
	if !last.OccurredAt.IsZero() {
		summary.LastEventAt = &last.OccurredAt
	}

	var daily []dayKindCount
	err = r.db.WithContext(ctx).Model(&AdEvent{}).
		Select("DATE_TRUNC('day', occurred_at) as day, kind, COUNT(*) as count").
		Where("slot_id = ? AND occurred_at >= ?", slotID, since).
		Group("day, kind").
		Order("day ASC").
		Scan(&daily).Error
	if err != nil {
		return nil, err
	}
	summary.Daily = foldDaily(daily)
	return summary, nil
}

func foldDaily(rows []dayKindCount) []DayStats {
	days := []DayStats{}
	index := make(map[string]int)
	for _, row := range rows {
		date := row.Day.UTC().Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, DayStats{Date: date})
		}
		switch row.Kind {
		case KindView:
			days[i].Views += row.Count
		case KindClick:
			days[i].Clicks += row.Count
		case KindError:
			days[i].Errors += row.Count
		}
	}
	return days
}
