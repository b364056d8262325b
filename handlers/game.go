// handlers/game.go
package handlers

import (
	"game-session-service/middleware"
	"game-session-service/services"

	"github.com/gofiber/fiber/v2"
)

// SubmitsPerMinute is the per-user rate limit on score submission.
const SubmitsPerMinute = 5

func SetupGameRoutes(app *fiber.App, sessionService *services.SessionService, configService *services.ConfigService) {
	// 🔐 All game routes are per-user — user context enforced via middleware
	secured := app.Group("/game", middleware.UserContextMiddleware())

	secured.Post("/start", sessionService.StartGame)
	secured.Post("/end", middleware.SubmitRateLimit(SubmitsPerMinute), sessionService.EndGame)
	secured.Post("/abandon", sessionService.AbandonGame)

	secured.Get("/config", configService.GetConfig)
	secured.Get("/me/today", sessionService.TodayScore)
}
