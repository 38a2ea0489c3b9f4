package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// QuoteStatus represents the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusFinalized QuoteStatus = "finalized"
)

// TemplateVariant selects the visual style applied when rendering a quote.
// The set is closed; unknown values fall back to the classic palette at
// render time.
type TemplateVariant string

const (
	VariantClassic    TemplateVariant = "classic"
	VariantModern     TemplateVariant = "modern"
	VariantElegant    TemplateVariant = "elegant"
	VariantCreative   TemplateVariant = "creative"
	VariantMinimalist TemplateVariant = "minimalist"
)

// TemplateVariants lists every known variant, in display order.
var TemplateVariants = []TemplateVariant{
	VariantClassic, VariantModern, VariantElegant, VariantCreative, VariantMinimalist,
}

// Quote represents a priced proposal sent to a client.
// Quotes are hard-deleted; there is no soft-delete on this table.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the creator and owner of this quote
	UserID uint `gorm:"not null;uniqueIndex:ux_quotes_user_code" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Code is assigned by the server on first save, sequential per user.
	Code string `gorm:"size:50;not null;uniqueIndex:ux_quotes_user_code" json:"code"`

	Title       string `gorm:"size:255" json:"title"`
	ClientName  string `gorm:"size:255" json:"client_name"`
	ClientEmail string `gorm:"size:255" json:"client_email,omitempty"`

	IssueDate time.Time `gorm:"not null" json:"issue_date"`

	DiscountPercent float64         `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	TemplateVariant TemplateVariant `gorm:"size:20;not null;default:'classic'" json:"template_variant"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`

	Status QuoteStatus `gorm:"size:20;not null;default:'draft'" json:"status"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (q *Quote) GetUserID() uint {
	return q.UserID
}

// IsDraft returns true if the quote is still editable.
func (q *Quote) IsDraft() bool {
	return q.Status == QuoteStatusDraft
}

// CanEdit returns true if the quote can still be modified.
func (q *Quote) CanEdit() bool {
	return q.Status == QuoteStatusDraft
}

// QuoteItem represents one priced row within a quote.
// BuyQuantity and LineTotal are always derived, never stored.
type QuoteItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuoteID uint   `gorm:"index;not null" json:"quote_id"`
	Quote   *Quote `gorm:"foreignKey:QuoteID" json:"-"`

	Description string  `gorm:"size:500" json:"description"`
	UnitPrice   float64 `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	NeededQty   int     `gorm:"not null;default:0" json:"needed_quantity"`
	OwnedQty    int     `gorm:"not null;default:0" json:"owned_quantity"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// BuyQuantity is the quantity that still needs to be purchased.
// Never negative, regardless of stored values.
func (item *QuoteItem) BuyQuantity() int {
	if item.NeededQty <= item.OwnedQty {
		return 0
	}
	return item.NeededQty - item.OwnedQty
}

// LineTotal is derived from the buy quantity, not the needed quantity.
func (item *QuoteItem) LineTotal() float64 {
	if item.UnitPrice < 0 {
		return 0
	}
	return float64(item.BuyQuantity()) * item.UnitPrice
}

// Savings is the amount not spent thanks to already-owned units.
func (item *QuoteItem) Savings() float64 {
	if item.OwnedQty <= 0 || item.UnitPrice < 0 {
		return 0
	}
	owned := item.OwnedQty
	if owned > item.NeededQty {
		owned = item.NeededQty
	}
	return float64(owned) * item.UnitPrice
}

// GenerateQuoteCode generates the next sequential code for a user's quotes.
// Format: ORC-YYYY-NNNN (e.g., ORC-2026-0001)
//
// The sequence comes from the highest suffix already assigned, not from a
// row count: quotes are hard-deleted, so counting rows would hand out a
// code that is still taken by a surviving quote.
func GenerateQuoteCode(db *gorm.DB, userID uint, year int) (string, error) {
	var codes []string
	err := db.Model(&Quote{}).
		Where("user_id = ?", userID).
		Pluck("code", &codes).Error
	if err != nil {
		return "", err
	}

	highest := 0
	for _, code := range codes {
		i := strings.LastIndexByte(code, '-')
		if i < 0 {
			continue
		}
		if n, err := strconv.Atoi(code[i+1:]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("ORC-%d-%04d", year, highest+1), nil
}
