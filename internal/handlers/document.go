package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/entitlement"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/render"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/gorm"
)

type DocumentHandler struct {
	db        *gorm.DB
	authz     *gate.Gate[*models.User]
	svc       *services.QuoteService
	ents      *entitlement.Service
	formatter *money.Formatter

	mu        sync.Mutex
	renderers map[string]*render.Renderer
}

func NewDocumentHandler(db *gorm.DB, authz *gate.Gate[*models.User], svc *services.QuoteService, ents *entitlement.Service, formatter *money.Formatter) *DocumentHandler {
	return &DocumentHandler{
		db:        db,
		authz:     authz,
		svc:       svc,
		ents:      ents,
		formatter: formatter,
		renderers: make(map[string]*render.Renderer),
	}
}

// renderer returns the cached renderer for lang, building it on first use.
// Templates parse once per language, not once per request. Unsupported
// values collapse to the default language so the cache stays bounded by the
// translation set no matter what the request carried.
func (h *DocumentHandler) renderer(lang string) *render.Renderer {
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.renderers[lang]; ok {
		return r
	}
	r := render.NewRenderer(h.formatter, lang)
	h.renderers[lang] = r
	return r
}

// Entitlement reports whether the current user could generate a document for
// this quote, without consuming anything. The client uses it to decide
// between the download button and the upgrade prompt.
func (h *DocumentHandler) Entitlement(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	if _, ok := h.loadQuote(w, r, user); !ok {
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"can_generate":        h.ents.Check(user) == nil,
		"state":               entitlement.StateOf(user),
		"free_downloads_used": user.FreeDownloadsUsed,
	})
}

// Generate renders the quote document and charges the entitlement. The
// Idempotency-Key header is required so a retried request cannot spend the
// free allowance twice.
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user)
	if !ok {
		return
	}

	token := r.Header.Get("Idempotency-Key")
	if token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_idempotency_key", nil)
		return
	}

	var company models.CompanySettings
	if err := h.db.Where("user_id = ?", quote.UserID).First(&company).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	doc := h.renderer(i18n.LangFromContext(r.Context())).
		Render(quote, h.svc.ComputeTotals(&quote), company)

	// Record makes the call: retried tokens pass without spending anything,
	// exhausted trials are refused. Rendering first is fine, it is pure.
	if err := h.ents.Record(r.Context(), user, token, quote.ID); err != nil {
		var subErr *entitlement.SubscriptionRequiredError
		if errors.As(err, &subErr) {
			writeSubscriptionRequired(w, subErr)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// loadQuote fetches the path quote and authorizes document generation on it.
func (h *DocumentHandler) loadQuote(w http.ResponseWriter, r *http.Request, user models.User) (models.Quote, bool) {
	var q models.Quote
	err := h.db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, id") }).
		First(&q, "id = ?", r.PathValue("id")).Error
	if err != nil {
		writeNotFound(w)
		return q, false
	}
	if err := h.authz.Authorize(r.Context(), &user, gate.ActionGenerate, "quote", &q); err != nil {
		writeForbidden(w)
		return q, false
	}
	return q, true
}
