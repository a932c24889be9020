package slots

import "time"

type SlotResponse struct {
	SlotID          string    `json:"slot_id"`
	Identifier      string    `json:"identifier"`
	Size            Size      `json:"size"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	BasePrice       string    `json:"base_price"`
	DurationOptions []string  `json:"duration_options"`
	DurationMinutes []int     `json:"duration_minutes"`
	Category        string    `json:"category,omitempty"`
	WebsiteURL      string    `json:"website_url,omitempty"`
	PublisherWallet string    `json:"publisher_wallet"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PaginatedSlots struct {
	Slots      []SlotResponse `json:"slots"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}
