// Package entitlement decides whether a user may generate a quote document.
//
// The decision is a small state machine over the user row:
//
//	Admin           -> always permitted, counter never touched
//	Subscribed      -> always permitted, counter never touched
//	TrialAvailable  -> permitted once; consuming it moves to TrialExhausted
//	TrialExhausted  -> refused with SubscriptionRequiredError
//
// Subscription status is the cached has_active_subscription column,
// maintained asynchronously by billing webhook notifications. This package
// never contacts the billing provider.
package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// State is the computed entitlement state of a user.
type State string

const (
	StateAdmin          State = "admin"
	StateSubscribed     State = "subscribed"
	StateTrialAvailable State = "trial_available"
	StateTrialExhausted State = "trial_exhausted"
)

// StateOf derives the entitlement state from a user row. Pure.
func StateOf(u models.User) State {
	switch {
	case u.IsAdmin():
		return StateAdmin
	case u.HasActiveSubscription:
		return StateSubscribed
	case u.FreeDownloadsUsed == 0:
		return StateTrialAvailable
	default:
		return StateTrialExhausted
	}
}

// SubscriptionRequiredError signals that the free allowance is spent and a
// subscription is needed. It is a recoverable condition, not a fault; the
// count is carried so the caller can surface it in the upgrade prompt.
type SubscriptionRequiredError struct {
	FreeDownloadsUsed int
}

func (e *SubscriptionRequiredError) Error() string {
	return fmt.Sprintf("subscription required (free downloads used: %d)", e.FreeDownloadsUsed)
}

// IsSubscriptionRequired reports whether err is a SubscriptionRequiredError.
func IsSubscriptionRequired(err error) bool {
	var target *SubscriptionRequiredError
	return errors.As(err, &target)
}

// Service applies the entitlement rules against the store.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Check is the read-only half of the gate: may this user generate a document
// right now? It never mutates anything and is safe to call from UI code.
func (s *Service) Check(u models.User) error {
	switch StateOf(u) {
	case StateAdmin, StateSubscribed, StateTrialAvailable:
		return nil
	default:
		return &SubscriptionRequiredError{FreeDownloadsUsed: u.FreeDownloadsUsed}
	}
}

// Record is the side-effecting half: call it exactly once after a successful
// generation. Admins and subscribers are never charged. A trial user consumes
// the one-time allowance through a single conditional UPDATE, so two
// concurrent requests cannot both spend it. The idempotency token dedupes
// network retries: a token that already has a receipt is treated as the same
// attempt and does not consume anything.
func (s *Service) Record(ctx context.Context, u models.User, token string, quoteID uint) error {
	state := StateOf(u)
	if state == StateAdmin || state == StateSubscribed {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if token != "" {
			var count int64
			if err := tx.Model(&models.GenerationReceipt{}).
				Where("user_id = ? AND token = ?", u.ID, token).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				// Retry of an attempt that already went through.
				return nil
			}
		}

		if state == StateTrialExhausted {
			return &SubscriptionRequiredError{FreeDownloadsUsed: u.FreeDownloadsUsed}
		}

		// Single-row conditional increment: the WHERE clause guarantees the
		// counter moves 0 -> 1 at most once even under concurrent requests.
		res := tx.Model(&models.User{}).
			Where("id = ? AND free_downloads_used = 0 AND has_active_subscription = ?", u.ID, false).
			UpdateColumn("free_downloads_used", gorm.Expr("free_downloads_used + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Someone else consumed the trial between Check and Record.
			return &SubscriptionRequiredError{FreeDownloadsUsed: 1}
		}

		if token != "" {
			receipt := models.GenerationReceipt{UserID: u.ID, Token: token, QuoteID: quoteID}
			if err := tx.Create(&receipt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
