package slots

type CreateSlotRequest struct {
	SlotID          string   `json:"slot_id" binding:"required,slot_id"`
	Identifier      string   `json:"identifier" binding:"omitempty,max=255"`
	Size            Size     `json:"size" binding:"required,oneof=banner square mobile sidebar custom"`
	Width           int      `json:"width" binding:"omitempty,min=1,max=4096"`
	Height          int      `json:"height" binding:"omitempty,min=1,max=4096"`
	BasePrice       string   `json:"base_price" binding:"required,decimal_amount"`
	DurationOptions []string `json:"duration_options" binding:"omitempty,max=10,dive,required"`
	Category        string   `json:"category" binding:"omitempty,max=100"`
	WebsiteURL      string   `json:"website_url" binding:"omitempty,url,max=500"`
	PublisherWallet string   `json:"publisher_wallet" binding:"omitempty,evm_address"`
}

type SlotListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Category  string `form:"category"`
	Size      Size   `form:"size" binding:"omitempty,oneof=banner square mobile sidebar custom"`
	Publisher string `form:"publisher" binding:"omitempty,evm_address"`
}
