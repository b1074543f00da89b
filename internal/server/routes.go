package server

import (
	"curator/internal/core/analysis"
	"curator/internal/core/photos"
	"curator/internal/core/share"
	"curator/internal/health"
	"curator/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Analysis *analysis.Handler
	Photos   *photos.Handler
	Share    *share.Handler
	Redis    *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	api.Get("/albums", d.Photos.HandleListAlbums)
	api.Post("/albums/parse", d.Share.HandleParse)

	api.Post("/analysis", d.Analysis.HandleStart)
	api.Post("/analysis/scraped", d.Analysis.HandleStartScraped)
	api.Get("/analysis/:jobId", d.Analysis.HandleGetStatus)
	api.Get("/analysis/:jobId/stream", d.Analysis.HandleStream)

	return healthHandler
}
