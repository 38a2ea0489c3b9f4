package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/pricing"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

type QuoteHandler struct {
	db    *gorm.DB
	authz *gate.Gate[*models.User]
	svc   *services.QuoteService
}

func NewQuoteHandler(db *gorm.DB, authz *gate.Gate[*models.User], svc *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{db: db, authz: authz, svc: svc}
}

// quoteResponse is a quote plus its freshly computed totals. Totals are
// derived on every read and never stored.
type quoteResponse struct {
	models.Quote
	Totals pricing.Totals `json:"totals"`
}

func (h *QuoteHandler) respond(w http.ResponseWriter, status int, q models.Quote) {
	httpx.JSON(w, status, quoteResponse{Quote: q, Totals: h.svc.ComputeTotals(&q)})
}

// loadQuote fetches the quote from the path id and authorizes action on it.
// Writes the error response itself when it returns ok=false.
func (h *QuoteHandler) loadQuote(w http.ResponseWriter, r *http.Request, user models.User, action gate.Action) (models.Quote, bool) {
	var q models.Quote
	err := h.db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, id") }).
		First(&q, "id = ?", r.PathValue("id")).Error
	if err != nil {
		writeNotFound(w)
		return q, false
	}
	if err := h.authz.Authorize(r.Context(), &user, action, "quote", &q); err != nil {
		writeForbidden(w)
		return q, false
	}
	return q, true
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	offset := (page - 1) * limit

	tx := h.db.Where("user_id = ?", user.ID)
	if query != "" {
		tx = tx.Where("code LIKE ? OR title LIKE ? OR client_name LIKE ?",
			"%"+query+"%", "%"+query+"%", "%"+query+"%")
	}

	var total int64
	tx.Model(&models.Quote{}).Count(&total)

	var quotes []models.Quote
	tx.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, id") }).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&quotes)

	items := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, quoteResponse{Quote: q, Totals: h.svc.ComputeTotals(&q)})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotes": items,
		"page":   page,
		"limit":  limit,
		"total":  total,
	})
}

type quoteCreateRequest struct {
	Title           string        `json:"title"`
	ClientName      string        `json:"client_name"`
	ClientEmail     string        `json:"client_email"`
	DiscountPercent httpx.Numeric `json:"discount_percent"`
	TemplateVariant string        `json:"template_variant"`
	Notes           string        `json:"notes"`
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req quoteCreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	variant := models.TemplateVariant(req.TemplateVariant)
	if variant == "" {
		variant = models.VariantClassic
	}
	v := make(validation.Violations)
	validation.OneOf("template_variant", string(variant), templateVariantNames(), v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	quote := models.Quote{
		UserID:          user.ID,
		Title:           req.Title,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		IssueDate:       time.Now(),
		DiscountPercent: pricing.ClampDiscount(req.DiscountPercent.Float64()),
		TemplateVariant: variant,
		Notes:           req.Notes,
		Status:          models.QuoteStatusDraft,
	}
	// Two concurrent creates can pick the same next code; the unique index
	// rejects the loser, which just asks for a fresh one.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = h.svc.AssignCode(&quote); err != nil {
			break
		}
		err = h.db.Create(&quote).Error
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.respond(w, http.StatusCreated, quote)
}

func templateVariantNames() []string {
	names := make([]string, len(models.TemplateVariants))
	for i, v := range models.TemplateVariants {
		names[i] = string(v)
	}
	return names
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionView)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, quote)
}

// quoteUpdateRequest carries a partial update; only non-nil fields are applied.
type quoteUpdateRequest struct {
	Title           *string        `json:"title"`
	ClientName      *string        `json:"client_name"`
	ClientEmail     *string        `json:"client_email"`
	DiscountPercent *httpx.Numeric `json:"discount_percent"`
	TemplateVariant *string        `json:"template_variant"`
	Notes           *string        `json:"notes"`
}

func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionUpdate)
	if !ok {
		return
	}
	if !quote.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "quote_finalized", nil)
		return
	}

	var req quoteUpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if req.Title != nil {
		quote.Title = *req.Title
	}
	if req.ClientName != nil {
		quote.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		quote.ClientEmail = *req.ClientEmail
	}
	if req.DiscountPercent != nil {
		quote.DiscountPercent = pricing.ClampDiscount(req.DiscountPercent.Float64())
	}
	if req.TemplateVariant != nil {
		v := make(validation.Violations)
		validation.OneOf("template_variant", *req.TemplateVariant, templateVariantNames(), v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
			return
		}
		quote.TemplateVariant = models.TemplateVariant(*req.TemplateVariant)
	}
	if req.Notes != nil {
		quote.Notes = *req.Notes
	}

	if err := h.db.Save(&quote).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.respond(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionDelete)
	if !ok {
		return
	}

	// Hard delete: quotes have no soft-delete. Items go with the quote.
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quote).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *QuoteHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionUpdate)
	if !ok {
		return
	}
	if !quote.IsDraft() {
		httpx.JSONError(w, http.StatusConflict, "quote_finalized", nil)
		return
	}
	if len(quote.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "quote_has_no_items", nil)
		return
	}

	quote.Status = models.QuoteStatusFinalized
	if err := h.db.Save(&quote).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.respond(w, http.StatusOK, quote)
}

type itemRequest struct {
	Description string        `json:"description"`
	UnitPrice   httpx.Numeric `json:"unit_price"`
	NeededQty   httpx.Numeric `json:"needed_quantity"`
	OwnedQty    httpx.Numeric `json:"owned_quantity"`
	Position    int           `json:"position"`
}

// sanitizeQuantities applies the leniency rules: negative numbers count as
// zero and owned is capped at needed, keeping the stored row inside the
// invariants instead of rejecting the save.
func sanitizeQuantities(price float64, needed, owned int) (float64, int, int) {
	if price < 0 {
		price = 0
	}
	if needed < 0 {
		needed = 0
	}
	if owned < 0 {
		owned = 0
	}
	if owned > needed {
		owned = needed
	}
	return price, needed, owned
}

func (h *QuoteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionUpdate)
	if !ok {
		return
	}
	if !quote.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "quote_finalized", nil)
		return
	}

	var req itemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := make(validation.Violations)
	validation.MaxLen("description", req.Description, 500, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	price, needed, owned := sanitizeQuantities(
		req.UnitPrice.Float64(), int(req.NeededQty.Float64()), int(req.OwnedQty.Float64()))

	item := models.QuoteItem{
		QuoteID:     quote.ID,
		Description: req.Description,
		UnitPrice:   price,
		NeededQty:   needed,
		OwnedQty:    owned,
		Position:    req.Position,
	}
	if err := h.db.Create(&item).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	quote.Items = append(quote.Items, item)
	h.respond(w, http.StatusCreated, quote)
}

type itemUpdateRequest struct {
	Description *string        `json:"description"`
	UnitPrice   *httpx.Numeric `json:"unit_price"`
	NeededQty   *httpx.Numeric `json:"needed_quantity"`
	OwnedQty    *httpx.Numeric `json:"owned_quantity"`
	Position    *int           `json:"position"`
}

func (h *QuoteHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionUpdate)
	if !ok {
		return
	}
	if !quote.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "quote_finalized", nil)
		return
	}

	var item models.QuoteItem
	if err := h.db.First(&item, "id = ? AND quote_id = ?", r.PathValue("item_id"), quote.ID).Error; err != nil {
		writeNotFound(w)
		return
	}

	var req itemUpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.UnitPrice != nil {
		item.UnitPrice = req.UnitPrice.Float64()
	}
	if req.NeededQty != nil {
		item.NeededQty = int(req.NeededQty.Float64())
	}
	if req.OwnedQty != nil {
		item.OwnedQty = int(req.OwnedQty.Float64())
	}
	if req.Position != nil {
		item.Position = *req.Position
	}
	item.UnitPrice, item.NeededQty, item.OwnedQty =
		sanitizeQuantities(item.UnitPrice, item.NeededQty, item.OwnedQty)

	if err := h.db.Save(&item).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	for i := range quote.Items {
		if quote.Items[i].ID == item.ID {
			quote.Items[i] = item
		}
	}
	h.respond(w, http.StatusOK, quote)
}

func (h *QuoteHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	quote, ok := h.loadQuote(w, r, user, gate.ActionUpdate)
	if !ok {
		return
	}
	if !quote.CanEdit() {
		httpx.JSONError(w, http.StatusConflict, "quote_finalized", nil)
		return
	}

	res := h.db.Where("id = ? AND quote_id = ?", r.PathValue("item_id"), quote.ID).
		Delete(&models.QuoteItem{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		writeNotFound(w)
		return
	}

	remaining := quote.Items[:0]
	itemID := r.PathValue("item_id")
	for _, it := range quote.Items {
		if strconv.FormatUint(uint64(it.ID), 10) != itemID {
			remaining = append(remaining, it)
		}
	}
	quote.Items = remaining
	h.respond(w, http.StatusOK, quote)
}
