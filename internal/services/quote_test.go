package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Quote{}, &models.QuoteItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAssignCodeSequentialPerUser(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewQuoteService(db)
	year := time.Now().Year()

	alice := models.User{Email: "alice@test", Password: "x", Role: models.RoleUser}
	bob := models.User{Email: "bob@test", Password: "x", Role: models.RoleUser}
	db.Create(&alice)
	db.Create(&bob)

	for i := 1; i <= 2; i++ {
		q := models.Quote{UserID: alice.ID, Status: models.QuoteStatusDraft}
		if err := svc.AssignCode(&q); err != nil {
			t.Fatalf("assign: %v", err)
		}
		want := fmt.Sprintf("ORC-%d-%04d", year, i)
		if q.Code != want {
			t.Fatalf("expected %s got %s", want, q.Code)
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Bob's sequence is independent of Alice's
	q := models.Quote{UserID: bob.ID, Status: models.QuoteStatusDraft}
	if err := svc.AssignCode(&q); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.HasSuffix(q.Code, "-0001") {
		t.Fatalf("expected bob's first code to end in -0001, got %s", q.Code)
	}
}

func TestQuotedValueCountsOnlyFinalized(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewQuoteService(db)

	user := models.User{Email: "value@test", Password: "x", Role: models.RoleUser}
	db.Create(&user)

	finalized := models.Quote{UserID: user.ID, Code: "ORC-2026-0001", Status: models.QuoteStatusFinalized, DiscountPercent: 10}
	db.Create(&finalized)
	db.Create(&models.QuoteItem{QuoteID: finalized.ID, UnitPrice: 100, NeededQty: 5, OwnedQty: 2})

	draft := models.Quote{UserID: user.ID, Code: "ORC-2026-0002", Status: models.QuoteStatusDraft}
	db.Create(&draft)
	db.Create(&models.QuoteItem{QuoteID: draft.ID, UnitPrice: 999, NeededQty: 1})

	total, err := svc.QuotedValue(user.ID)
	if err != nil {
		t.Fatalf("quoted value: %v", err)
	}
	// 3 to buy at 100 with 10% off
	if total != 270 {
		t.Fatalf("expected 270 got %v", total)
	}
}
