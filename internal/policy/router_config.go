package policy

import (
	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/entitlement"
	"github.com/diewo77/go-quotes/internal/handlers"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds the configured gate, handlers and services for the
// application router.
type RouterConfig struct {
	// Gate provides authorization checks for resource access
	Gate *gate.Gate[*models.User]

	// Handlers
	AuthHandler     *handlers.AuthHandler
	QuoteHandler    *handlers.QuoteHandler
	CompanyHandler  *handlers.CompanyHandler
	DocumentHandler *handlers.DocumentHandler
	BillingHandler  *handlers.BillingHandler

	// Services
	QuoteService *services.QuoteService
	Entitlements *entitlement.Service
}

// NewRouterConfig wires the authorization gate, policies, services and
// handlers together. Resources are visible to their owner or to any admin,
// so every policy is the ownership check wrapped in the admin bypass.
func NewRouterConfig(db *gorm.DB, cfg *config.Config) *RouterConfig {
	authz := gate.NewGate[*models.User]()

	ownership := NewAdminBypassPolicy(NewOwnershipPolicy())
	authz.Register("quote", ownership)
	authz.Register("company_settings", ownership)

	quoteService := services.NewQuoteService(db)
	entitlements := entitlement.NewService(db)
	formatter := money.New(cfg.App.DocLocale, cfg.App.DocCurrency)

	return &RouterConfig{
		Gate:            authz,
		AuthHandler:     handlers.NewAuthHandler(db),
		QuoteHandler:    handlers.NewQuoteHandler(db, authz, quoteService),
		CompanyHandler:  handlers.NewCompanyHandler(db),
		DocumentHandler: handlers.NewDocumentHandler(db, authz, quoteService, entitlements, formatter),
		BillingHandler:  handlers.NewBillingHandler(db, cfg.App.BillingWebhookSecret),
		QuoteService:    quoteService,
		Entitlements:    entitlements,
	}
}
