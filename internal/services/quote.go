package services

import (
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/pricing"
	"gorm.io/gorm"
)

type QuoteService struct {
	db *gorm.DB
}

func NewQuoteService(db *gorm.DB) *QuoteService {
	return &QuoteService{db: db}
}

// ComputeTotals prices a quote through the pricing engine.
func (s *QuoteService) ComputeTotals(q *models.Quote) pricing.Totals {
	return pricing.Compute(q.Items, q.DiscountPercent)
}

// AssignCode gives a quote its server-generated sequential code.
// Called on first save only; codes are never reassigned.
func (s *QuoteService) AssignCode(q *models.Quote) error {
	code, err := models.GenerateQuoteCode(s.db, q.UserID, time.Now().Year())
	if err != nil {
		return err
	}
	q.Code = code
	return nil
}

// QuotedValue sums the totals of a user's finalized quotes.
func (s *QuoteService) QuotedValue(userID uint) (float64, error) {
	var quotes []models.Quote
	err := s.db.Where("user_id = ? AND status = ?", userID, models.QuoteStatusFinalized).
		Preload("Items").
		Find(&quotes).Error
	if err != nil {
		return 0, err
	}

	var total float64
	for i := range quotes {
		total += s.ComputeTotals(&quotes[i]).Total
	}
	return total, nil
}
