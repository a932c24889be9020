package analytics

// TrackRequest is posted by the embed script. SlotIndex is the name the
// script uses for the slot id; Timestamp is in unix milliseconds.
type TrackRequest struct {
	SlotIndex string `json:"slotIndex" binding:"required,slot_id"`
	IPFSHash  string `json:"ipfsHash" binding:"omitempty,max=255"`
	Error     string `json:"error" binding:"omitempty,max=2000"`
	Timestamp int64  `json:"timestamp" binding:"omitempty,min=0"`
	UserAgent string `json:"userAgent" binding:"omitempty,max=500"`
	Referrer  string `json:"referrer" binding:"omitempty,max=1000"`
	URL       string `json:"url" binding:"omitempty,max=1000"`
}

type SummaryQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=90"`
}
