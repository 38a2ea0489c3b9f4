package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// BillingHandler receives subscription lifecycle notifications from the
// billing provider and keeps the cached has_active_subscription flag in sync.
// The provider authenticates with a shared secret header; no other billing
// state lives in this service.
type BillingHandler struct {
	db     *gorm.DB
	secret string
}

func NewBillingHandler(db *gorm.DB, secret string) *BillingHandler {
	return &BillingHandler{db: db, secret: secret}
}

type billingEvent struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" ||
		subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Billing-Secret")), []byte(h.secret)) != 1 {
		writeUnauthorized(w)
		return
	}

	var event billingEvent
	if err := httpx.Decode(r, &event); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	var active bool
	switch event.Type {
	case "subscription.activated":
		active = true
	case "subscription.deactivated":
		active = false
	default:
		httpx.JSONError(w, http.StatusBadRequest, "unknown_event", nil)
		return
	}

	res := h.db.Model(&models.User{}).
		Where("email = ?", event.Email).
		Update("has_active_subscription", active)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		// Unknown account: acknowledge anyway so the provider stops retrying,
		// but leave a trace for reconciliation.
		log.Printf("billing webhook for unknown account %q", event.Email)
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
