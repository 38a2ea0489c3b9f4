package handlers

import (
	"net/http"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/entitlement"
	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// currentUser loads the authenticated identity for this request.
// Handlers pass the returned value into core operations explicitly; no core
// code reads identity from ambient request state.
func currentUser(db *gorm.DB, r *http.Request) (models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return models.User{}, false
	}
	var u models.User
	if err := db.First(&u, uid).Error; err != nil {
		return models.User{}, false
	}
	if !u.IsActive() {
		return models.User{}, false
	}
	return u, true
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
}

func writeForbidden(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
}

func writeNotFound(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}

// writeSubscriptionRequired surfaces the entitlement refusal with the usage
// count so the client can show an upgrade prompt. 402 keeps it distinct from
// authorization failures.
func writeSubscriptionRequired(w http.ResponseWriter, e *entitlement.SubscriptionRequiredError) {
	httpx.JSON(w, http.StatusPaymentRequired, map[string]any{
		"error":               "subscription_required",
		"free_downloads_used": e.FreeDownloadsUsed,
	})
}
