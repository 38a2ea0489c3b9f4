package main

import (
	"net/http"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/policy"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Global middleware: auth context + language preference
	handler := auth.Middleware(withLanguage(a.mux))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes. The API is JSON throughout;
// the React client consumes it directly.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", a.healthz)

	// Billing provider callback, authenticated by shared secret header
	a.mux.HandleFunc("POST /billing/webhook", a.routerCfg.BillingHandler.Webhook)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require logged-in user)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /me", a.requireAuth(http.HandlerFunc(ah.Me)))

	sh := a.routerCfg.CompanyHandler
	a.mux.Handle("GET /company", a.requireAuth(http.HandlerFunc(sh.Get)))
	a.mux.Handle("PUT /company", a.requireAuth(http.HandlerFunc(sh.Update)))

	// Quotes: ownership (or admin bypass) is enforced per-resource inside the
	// handlers through the gate, after the quote is loaded.
	qh := a.routerCfg.QuoteHandler
	a.mux.Handle("GET /quotes", a.requireAuth(http.HandlerFunc(qh.List)))
	a.mux.Handle("POST /quotes", a.requireAuth(http.HandlerFunc(qh.Create)))
	a.mux.Handle("GET /quotes/{id}", a.requireAuth(http.HandlerFunc(qh.Get)))
	a.mux.Handle("PATCH /quotes/{id}", a.requireAuth(http.HandlerFunc(qh.Update)))
	a.mux.Handle("DELETE /quotes/{id}", a.requireAuth(http.HandlerFunc(qh.Delete)))
	a.mux.Handle("POST /quotes/{id}/finalize", a.requireAuth(http.HandlerFunc(qh.Finalize)))

	// Quote items
	a.mux.Handle("POST /quotes/{id}/items", a.requireAuth(http.HandlerFunc(qh.AddItem)))
	a.mux.Handle("PATCH /quotes/{id}/items/{item_id}", a.requireAuth(http.HandlerFunc(qh.UpdateItem)))
	a.mux.Handle("DELETE /quotes/{id}/items/{item_id}", a.requireAuth(http.HandlerFunc(qh.RemoveItem)))

	// Document generation
	dh := a.routerCfg.DocumentHandler
	a.mux.Handle("GET /quotes/{id}/entitlement", a.requireAuth(http.HandlerFunc(dh.Entitlement)))
	a.mux.Handle("POST /quotes/{id}/document", a.requireAuth(http.HandlerFunc(dh.Generate)))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require a valid session.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// withLanguage resolves the document/label language for the request:
// explicit ?lang= first (only when it names a supported language), then the
// Accept-Language header. Nothing downstream ever sees an arbitrary string.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		if !i18n.IsSupported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx := i18n.WithLang(r.Context(), lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
