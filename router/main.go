package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/handlers"
	week_handlers "github.com/sahilchouksey/course-week-planner/handlers/week"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/auth"
	"github.com/sahilchouksey/course-week-planner/utils/middleware"
)

// Deps are the collaborators the routes are built from
type Deps struct {
	Store           database.Storage
	Schedules       week_handlers.ScheduleProvider
	Recommendations week_handlers.RecommendationProvider
	JWT             auth.JWTConfig
	Security        middleware.SecurityConfig
	Log             *utils.Logger
}

func SetupRoutes(app *fiber.App, deps Deps) {
	jwtManager := auth.NewJWTManager(deps.JWT)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	if deps.Security.RateLimitWindow == 0 {
		deps.Security.RateLimitWindow = time.Minute
	}
	middleware.SetupSecurity(app, deps.Security)

	// Health check endpoint (public)
	app.Get("/health", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, deps.Store) })

	weekHandler := week_handlers.NewWeekHandler(deps.Schedules, deps.Recommendations, deps.Log)

	// API v1 group
	api := app.Group("/api/v1")

	// Class week routes (protected, the class must be owned by the caller)
	weeks := api.Group("/classes/:class_id/weeks", authMiddleware.Required())
	weeks.Get("/schedule", weekHandler.GetSchedule)               // Protected: 7-day schedule + upcoming
	weeks.Get("/recommendations", weekHandler.GetRecommendations) // Protected: 3 curated resources
}
