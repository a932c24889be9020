package analytics

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidEvent = errors.New("invalid analytics event")

// Kind is the type of a tracked ad interaction
type Kind string

const (
	KindView  Kind = "view"
	KindClick Kind = "click"
	KindError Kind = "error"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindView, KindClick, KindError:
		return true
	}
	return false
}

// AdEvent is one view, click or render error reported by an embedding page
type AdEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SlotID     string    `gorm:"type:varchar(128);not null;index:idx_ad_events_slot_kind,priority:1" json:"slot_id"`
	Kind       Kind      `gorm:"type:varchar(10);not null;index:idx_ad_events_slot_kind,priority:2" json:"kind"`
	ContentRef string    `gorm:"type:varchar(255)" json:"content_ref,omitempty"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	PageURL    string    `gorm:"type:varchar(1000)" json:"page_url,omitempty"`
	Referrer   string    `gorm:"type:varchar(1000)" json:"referrer,omitempty"`
	UserAgent  string    `gorm:"type:varchar(500)" json:"user_agent,omitempty"`
	ClientIP   string    `gorm:"type:varchar(45)" json:"-"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AdEvent) TableName() string {
	return "ad_events"
}

func (e *AdEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// SlotSummary aggregates the interactions recorded for one slot
type SlotSummary struct {
	SlotID       string     `json:"slot_id"`
	Views        int64      `json:"views"`
	Clicks       int64      `json:"clicks"`
	Errors       int64      `json:"errors"`
	ClickThrough float64    `json:"click_through_rate"`
	LastEventAt  *time.Time `json:"last_event_at,omitempty"`
	Daily        []DayStats `json:"daily"`
}

type DayStats struct {
	Date   string `json:"date"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
	Errors int64  `json:"errors"`
}

type kindCount struct {
	Kind  Kind
	Count int64
}

type dayKindCount struct {
	Day   time.Time
	Kind  Kind
	Count int64
}
