package routes

import (
	"net/http"

	"github.com/templui/lanchat/internal/app"
	"github.com/templui/lanchat/internal/handler"
	"github.com/templui/lanchat/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler()
	translate := handler.NewTranslateHandler(app.TranslateService)
	directory := handler.NewDirectoryHandler(app.DirectoryService)
	media := handler.NewMediaHandler(app.FileService)

	rateLimit := middleware.RateLimit(app.APILimiter, app.Cfg.TrustProxy)
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(middleware.RequireAuth(h))
	}

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /api", health.Status)
	mux.HandleFunc("GET /api/health", health.Status)

	// Translation proxy (public, rate limited)
	mux.HandleFunc("POST /trpc/translate", rateLimit(translate.Translate))
	mux.HandleFunc("POST /api/translate", rateLimit(translate.Translate))

	// Community directory
	mux.HandleFunc("GET /api/users", authed(directory.ListUsers))
	mux.HandleFunc("GET /api/users/{id}", authed(directory.ShowUser))

	// Media
	mux.HandleFunc("POST /api/media", authed(media.Upload))
	mux.HandleFunc("DELETE /api/media/{id}", authed(media.Delete))

	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.CORS,
		middleware.BearerAuth(app.Store),
	)
}
