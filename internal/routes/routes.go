package routes

import (
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/templui/stash/internal/app"
	"github.com/templui/stash/internal/handler"
	"github.com/templui/stash/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.Store)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg.AppURL)
	ledger := handler.NewLedgerHandler(app.LedgerService)

	limiter := middleware.NewRateLimiter(app.Cfg.RateLimitRPS, app.Cfg.RateLimitBurst)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)

	metricsHandler := app.Metrics.Handler()
	if app.Cfg.IsProduction() || app.Cfg.MetricsUser != "" {
		metricsHandler = middleware.BasicAuth(app.Cfg.MetricsUser, app.Cfg.MetricsPass)(metricsHandler)
	}
	mux.Handle("GET /metrics", metricsHandler)

	// ============================================================================
	// AUTH (rate limited)
	// ============================================================================

	mux.HandleFunc("GET /auth/google", limiter.Limit(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", limiter.Limit(auth.GoogleCallback))
	mux.HandleFunc("POST /auth/google/token", limiter.Limit(auth.Token))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PUBLIC API
	// ============================================================================

	mux.HandleFunc("GET /api/feed", ledger.Feed)
	mux.HandleFunc("GET /api/leaderboard", ledger.Leaderboard)

	// ============================================================================
	// PROTECTED API
	// ============================================================================

	mux.HandleFunc("GET /api/me", middleware.RequireAuth(ledger.Me))
	mux.HandleFunc("GET /api/dashboard", middleware.RequireAuth(ledger.Dashboard))
	mux.HandleFunc("POST /api/goals", limiter.Limit(middleware.RequireAuth(ledger.CreateGoal)))
	mux.HandleFunc("POST /api/sacrifices", limiter.Limit(middleware.RequireAuth(ledger.LogSacrifice)))

	cors := handlers.CORS(
		handlers.AllowedOrigins(app.Cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.CSRFHeader}),
		handlers.ExposedHeaders([]string{"Content-Length", middleware.CSRFHeader}),
		handlers.AllowCredentials(),
	)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		cors,
		middleware.Metrics(app.Metrics, mux),
		middleware.RequestLogging,
		middleware.SecurityHeaders,
		middleware.Config(app.Cfg), // Config before CSRF (cookie Secure flag)
		middleware.CSRFProtection,
		middleware.Auth(app.AuthService, app.Metrics),
	)
}
