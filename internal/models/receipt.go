package models

import "time"

// GenerationReceipt records one document-generation attempt per idempotency
// token. A replayed token (network retry) finds its receipt and does not
// consume the free allowance a second time.
type GenerationReceipt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uint   `gorm:"not null;uniqueIndex:ux_receipts_user_token" json:"user_id"`
	Token   string `gorm:"size:100;not null;uniqueIndex:ux_receipts_user_token" json:"token"`
	QuoteID uint   `gorm:"index" json:"quote_id"`
}
