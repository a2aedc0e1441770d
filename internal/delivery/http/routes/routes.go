// Package routes wires handlers onto the fiber app. Authenticated API
// routes live under /api/v1 behind the auth middleware; health stays
// public.
package routes

import (
	"skilltrade/internal/delivery/http/handler"
	"skilltrade/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	skills *handler.SkillHandler
	match  *handler.MatchHandler
	trades *handler.TradeHandler

	auth *middleware.AuthMiddleware
}

func NewRegistry(
	skills *handler.SkillHandler,
	match *handler.MatchHandler,
	trades *handler.TradeHandler,
	auth *middleware.AuthMiddleware,
) *Registry {
	return &Registry{
		health: handler.NewHealthHandler(),
		skills: skills,
		match:  match,
		trades: trades,
		auth:   auth,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	r.registerAPI(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	v1 := api.Group("/v1")
	if r.auth != nil {
		v1.Use(r.auth.Middleware())
	}

	r.skills.RegisterRoutes(v1)
	r.match.RegisterRoutes(v1)
	r.trades.RegisterRoutes(v1)
}
