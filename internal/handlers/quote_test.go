package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.CompanySettings{}, &models.Quote{}, &models.QuoteItem{}, &models.GenerationReceipt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Name: "Test", Password: "x", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return u
}

// ownerOrAdminPolicy mirrors the production registration: a quote is
// accessible to its creator or to any admin.
type ownerOrAdminPolicy struct{}

func (ownerOrAdminPolicy) Can(_ context.Context, user *models.User, _ gate.Action, resource any) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if resource == nil {
		return true
	}
	ownable, ok := resource.(interface{ GetUserID() uint })
	return ok && ownable.GetUserID() == user.ID
}

func testGate() *gate.Gate[*models.User] {
	g := gate.NewGate[*models.User]()
	g.Register("quote", ownerOrAdminPolicy{})
	return g
}

func newQuoteHandler(db *gorm.DB) *QuoteHandler {
	return NewQuoteHandler(db, testGate(), services.NewQuoteService(db))
}

// authedRequest builds a request carrying the user's session context.
func authedRequest(method, target, body string, userID uint) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func seedQuote(t *testing.T, db *gorm.DB, userID uint) models.Quote {
	t.Helper()
	q := models.Quote{UserID: userID, Code: fmt.Sprintf("ORC-2026-%04d", userID), ClientName: "Maria", Status: models.QuoteStatusDraft, TemplateVariant: models.VariantClassic}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("quote: %v", err)
	}
	return q
}

func decodeQuote(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode: %v body=%s", err, body)
	}
	return m
}

func TestQuoteCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "q@test", models.RoleUser)
	h := newQuoteHandler(db)

	body := `{"title":"Obra","client_name":"Maria","discount_percent":10,"template_variant":"modern"}`
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", body, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	created := decodeQuote(t, w.Body.Bytes())
	code, _ := created["code"].(string)
	if !strings.HasPrefix(code, "ORC-") {
		t.Fatalf("unexpected code %q", code)
	}
	if created["status"] != "draft" {
		t.Fatalf("expected draft status, got %v", created["status"])
	}

	listW := httptest.NewRecorder()
	h.List(listW, authedRequest(http.MethodGet, "/quotes", "", user.ID))
	if listW.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", listW.Code)
	}
	var list struct {
		Quotes []json.RawMessage `json:"quotes"`
		Total  int64             `json:"total"`
		Page   int               `json:"page"`
	}
	if err := json.Unmarshal(listW.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Quotes) != 1 || list.Total != 1 || list.Page != 1 {
		t.Fatalf("unexpected list: %s", listW.Body.String())
	}
}

func TestQuoteListScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	alice := seedUser(t, db, "alice@test", models.RoleUser)
	bob := seedUser(t, db, "bob@test", models.RoleUser)
	seedQuote(t, db, alice.ID)
	h := newQuoteHandler(db)

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/quotes", "", bob.ID))
	var list struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("bob should not see alice's quotes, got total=%d", list.Total)
	}
}

func TestQuoteItemsDriveTotals(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "totals@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	h := newQuoteHandler(db)

	// 5 needed, 2 owned at 100 each: buy 3, line total 300
	body := `{"description":"Cimento","unit_price":100,"needed_quantity":5,"owned_quantity":2}`
	req := authedRequest(http.MethodPost, "/quotes/1/items", body, user.ID)
	req.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w := httptest.NewRecorder()
	h.AddItem(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeQuote(t, w.Body.Bytes())
	totals, _ := resp["totals"].(map[string]any)
	if totals["subtotal"] != 300.0 || totals["total"] != 300.0 {
		t.Fatalf("unexpected totals: %v", totals)
	}

	// 10% discount: total drops to 270
	patch := authedRequest(http.MethodPatch, "/quotes/1", `{"discount_percent":10}`, user.ID)
	patch.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w = httptest.NewRecorder()
	h.Update(w, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	resp = decodeQuote(t, w.Body.Bytes())
	totals, _ = resp["totals"].(map[string]any)
	if totals["subtotal"] != 300.0 || totals["discount_amount"] != 30.0 || totals["total"] != 270.0 {
		t.Fatalf("unexpected discounted totals: %v", totals)
	}
}

func TestQuoteItemLeniency(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "lenient@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	h := newQuoteHandler(db)

	// Garbage price decodes to 0, negative needed clamps to 0 and owned
	// cannot exceed needed.
	body := `{"description":"Areia","unit_price":"abc","needed_quantity":-3,"owned_quantity":7}`
	req := authedRequest(http.MethodPost, "/quotes/1/items", body, user.ID)
	req.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w := httptest.NewRecorder()
	h.AddItem(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var item models.QuoteItem
	if err := db.First(&item, "quote_id = ?", quote.ID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.UnitPrice != 0 || item.NeededQty != 0 || item.OwnedQty != 0 {
		t.Fatalf("leniency not applied: %+v", item)
	}
}

func TestQuoteDiscountClamped(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "clamp@test", models.RoleUser)
	h := newQuoteHandler(db)

	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", `{"discount_percent":150}`, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
	resp := decodeQuote(t, w.Body.Bytes())
	if resp["discount_percent"] != 100.0 {
		t.Fatalf("discount should clamp to 100, got %v", resp["discount_percent"])
	}
}

func TestQuoteCodesSurviveDeletion(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "codes@test", models.RoleUser)
	h := newQuoteHandler(db)

	create := func() (uint, string) {
		w := httptest.NewRecorder()
		h.Create(w, authedRequest(http.MethodPost, "/quotes", `{"title":"x"}`, user.ID))
		if w.Code != http.StatusCreated {
			t.Fatalf("create expected 201 got %d body=%s", w.Code, w.Body.String())
		}
		var resp struct {
			ID   uint   `json:"id"`
			Code string `json:"code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp.ID, resp.Code
	}

	firstID, _ := create()
	_, second := create()

	del := authedRequest(http.MethodDelete, "/quotes/1", "", user.ID)
	del.SetPathValue("id", strconv.Itoa(int(firstID)))
	w := httptest.NewRecorder()
	h.Delete(w, del)
	if w.Code != http.StatusOK {
		t.Fatalf("delete expected 200 got %d", w.Code)
	}

	// The deleted quote's code must not be handed out again: the surviving
	// quote still holds -0002, so the next create gets -0003.
	_, third := create()
	if third == second {
		t.Fatalf("code %s reissued after deletion", third)
	}
	if !strings.HasSuffix(third, "-0003") {
		t.Fatalf("expected suffix -0003 got %s", third)
	}
}

func TestQuoteVariantValidated(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "variant@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	h := newQuoteHandler(db)

	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/quotes", `{"template_variant":"neon"}`, user.ID))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown variant on create expected 422 got %d", w.Code)
	}
	var resp struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Details["template_variant"] == "" {
		t.Fatalf("expected template_variant violation, got %v", resp.Details)
	}

	patch := authedRequest(http.MethodPatch, "/quotes/1", `{"template_variant":"neon"}`, user.ID)
	patch.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w = httptest.NewRecorder()
	h.Update(w, patch)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown variant on update expected 422 got %d", w.Code)
	}

	// Known variants pass
	patch = authedRequest(http.MethodPatch, "/quotes/1", `{"template_variant":"elegant"}`, user.ID)
	patch.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w = httptest.NewRecorder()
	h.Update(w, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("known variant expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestQuoteOwnershipAndAdminBypass(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner@test", models.RoleUser)
	other := seedUser(t, db, "other@test", models.RoleUser)
	admin := seedUser(t, db, "admin@test", models.RoleAdmin)
	quote := seedQuote(t, db, owner.ID)
	h := newQuoteHandler(db)

	get := func(userID uint) int {
		req := authedRequest(http.MethodGet, "/quotes/1", "", userID)
		req.SetPathValue("id", strconv.Itoa(int(quote.ID)))
		w := httptest.NewRecorder()
		h.Get(w, req)
		return w.Code
	}

	if code := get(owner.ID); code != http.StatusOK {
		t.Fatalf("owner expected 200 got %d", code)
	}
	if code := get(other.ID); code != http.StatusForbidden {
		t.Fatalf("non-owner expected 403 got %d", code)
	}
	if code := get(admin.ID); code != http.StatusOK {
		t.Fatalf("admin expected 200 got %d", code)
	}

	// Unknown id is a 404, not a 403
	req := authedRequest(http.MethodGet, "/quotes/999", "", owner.ID)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	h.Get(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestQuoteFinalizeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "final@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	h := newQuoteHandler(db)

	finalize := func() *httptest.ResponseRecorder {
		req := authedRequest(http.MethodPost, "/quotes/1/finalize", "", user.ID)
		req.SetPathValue("id", strconv.Itoa(int(quote.ID)))
		w := httptest.NewRecorder()
		h.Finalize(w, req)
		return w
	}

	// No items yet: refused
	if w := finalize(); w.Code != http.StatusBadRequest {
		t.Fatalf("empty quote finalize expected 400 got %d", w.Code)
	}

	item := models.QuoteItem{QuoteID: quote.ID, Description: "Tijolo", UnitPrice: 2, NeededQty: 100}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item: %v", err)
	}

	if w := finalize(); w.Code != http.StatusOK {
		t.Fatalf("finalize expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// Finalized quotes are read-only
	patch := authedRequest(http.MethodPatch, "/quotes/1", `{"title":"x"}`, user.ID)
	patch.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w := httptest.NewRecorder()
	h.Update(w, patch)
	if w.Code != http.StatusConflict {
		t.Fatalf("edit after finalize expected 409 got %d", w.Code)
	}

	// And cannot be finalized twice
	if w := finalize(); w.Code != http.StatusConflict {
		t.Fatalf("double finalize expected 409 got %d", w.Code)
	}
}

func TestQuoteDeleteRemovesItems(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "del@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	item := models.QuoteItem{QuoteID: quote.ID, Description: "Cal", UnitPrice: 10, NeededQty: 3}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item: %v", err)
	}
	h := newQuoteHandler(db)

	req := authedRequest(http.MethodDelete, "/quotes/1", "", user.ID)
	req.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	w := httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var quotes, items int64
	db.Model(&models.Quote{}).Count(&quotes)
	db.Model(&models.QuoteItem{}).Count(&items)
	if quotes != 0 || items != 0 {
		t.Fatalf("expected empty tables, got quotes=%d items=%d", quotes, items)
	}
}

func TestQuoteItemUpdateAndRemove(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "items@test", models.RoleUser)
	quote := seedQuote(t, db, user.ID)
	item := models.QuoteItem{QuoteID: quote.ID, Description: "Prego", UnitPrice: 1, NeededQty: 10, OwnedQty: 0}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item: %v", err)
	}
	h := newQuoteHandler(db)

	patch := authedRequest(http.MethodPatch, "/quotes/1/items/1", `{"owned_quantity":4}`, user.ID)
	patch.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	patch.SetPathValue("item_id", strconv.Itoa(int(item.ID)))
	w := httptest.NewRecorder()
	h.UpdateItem(w, patch)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeQuote(t, w.Body.Bytes())
	totals, _ := resp["totals"].(map[string]any)
	if totals["subtotal"] != 6.0 {
		t.Fatalf("expected subtotal 6 after owning 4, got %v", totals["subtotal"])
	}

	del := authedRequest(http.MethodDelete, "/quotes/1/items/1", "", user.ID)
	del.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	del.SetPathValue("item_id", strconv.Itoa(int(item.ID)))
	w = httptest.NewRecorder()
	h.RemoveItem(w, del)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var count int64
	db.Model(&models.QuoteItem{}).Count(&count)
	if count != 0 {
		t.Fatalf("item not removed, count=%d", count)
	}

	// Removing again is a 404
	del = authedRequest(http.MethodDelete, "/quotes/1/items/1", "", user.ID)
	del.SetPathValue("id", strconv.Itoa(int(quote.ID)))
	del.SetPathValue("item_id", strconv.Itoa(int(item.ID)))
	w = httptest.NewRecorder()
	h.RemoveItem(w, del)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
