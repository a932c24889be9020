package slots

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotExists   = errors.New("slot already exists")
	ErrForbidden    = errors.New("slot belongs to another publisher")
	ErrInvalidSlot  = errors.New("invalid slot")
)

// Size is the display format of an ad slot
type Size string

const (
	SizeBanner  Size = "banner"
	SizeSquare  Size = "square"
	SizeMobile  Size = "mobile"
	SizeSidebar Size = "sidebar"
	SizeCustom  Size = "custom"
)

// DefaultDimensions returns the standard width and height for a size
func (s Size) DefaultDimensions() (int, int) {
	switch s {
	case SizeBanner:
		return 728, 90
	case SizeSquare:
		return 300, 250
	case SizeMobile:
		return 320, 60
	case SizeSidebar:
		return 160, 600
	}
	return 0, 0
}

// StringList represents a JSON string array stored in the database
type StringList []string

// Value implements the driver.Valuer interface for database storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal([]string(l))
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	}
	return errors.New("type assertion to []byte failed")
}

// GormDataType tells GORM how to handle this type
func (StringList) GormDataType() string {
	return "jsonb"
}

// AdSlot is a publisher defined advertising position
type AdSlot struct {
	SlotID          string          `gorm:"type:varchar(128);primaryKey" json:"slot_id"`
	Identifier      string          `gorm:"type:varchar(255);not null" json:"identifier"`
	Size            Size            `gorm:"type:varchar(20);not null" json:"size"`
	Width           int             `gorm:"not null" json:"width"`
	Height          int             `gorm:"not null" json:"height"`
	BasePrice       decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"base_price"`
	DurationOptions StringList      `gorm:"type:jsonb;not null;default:'[]'" json:"duration_options"`
	Category        string          `gorm:"type:varchar(100)" json:"category"`
	WebsiteURL      string          `gorm:"type:varchar(500)" json:"website_url"`
	PublisherWallet string          `gorm:"type:varchar(42);not null;index" json:"publisher_wallet"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (AdSlot) TableName() string {
	return "ad_slots"
}

// DurationMinutes converts the duration options ("1h", "30m") to minutes
func (s *AdSlot) DurationMinutes() ([]int, error) {
	minutes := make([]int, 0, len(s.DurationOptions))
	for _, opt := range s.DurationOptions {
		d, err := time.ParseDuration(opt)
		if err != nil {
			return nil, fmt.Errorf("duration option %q: %w", opt, ErrInvalidSlot)
		}
		if d <= 0 || d%time.Minute != 0 {
			return nil, fmt.Errorf("duration option %q must be a positive whole number of minutes: %w", opt, ErrInvalidSlot)
		}
		minutes = append(minutes, int(d/time.Minute))
	}
	return minutes, nil
}

// AllowsDuration reports whether a claim of the given length fits the slot.
// A slot without options accepts any positive duration.
func (s *AdSlot) AllowsDuration(durationMinutes int) bool {
	if len(s.DurationOptions) == 0 {
		return durationMinutes > 0
	}
	options, err := s.DurationMinutes()
	if err != nil {
		return false
	}
	for _, m := range options {
		if m == durationMinutes {
			return true
		}
	}
	return false
}

func (s *AdSlot) ToResponse() SlotResponse {
	minutes, _ := s.DurationMinutes()
	return SlotResponse{
		SlotID:          s.SlotID,
		Identifier:      s.Identifier,
		Size:            s.Size,
		Width:           s.Width,
		Height:          s.Height,
		BasePrice:       s.BasePrice.String(),
		DurationOptions: []string(s.DurationOptions),
		DurationMinutes: minutes,
		Category:        s.Category,
		WebsiteURL:      s.WebsiteURL,
		PublisherWallet: s.PublisherWallet,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
