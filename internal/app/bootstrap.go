package app

import (
	"fmt"
	"log"
	"strings"

	"skilltrade/internal/config"
	"skilltrade/internal/delivery/http/handler"
	"skilltrade/internal/delivery/http/middleware"
	"skilltrade/internal/delivery/http/routes"
	"skilltrade/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}

	container, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{
		AppName: cfg.App.AppName,
	})

	registerGlobalMiddleware(f, logger)
	registerRoutes(f, container, logger)

	go container.Hub.Run()

	app := &App{Fiber: f, Container: container}
	cleanup := func() error {
		return container.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *log.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container, logger *log.Logger) {
	if app == nil || c == nil {
		return
	}

	auth := middleware.NewAuthMiddleware(c.JWT)
	registry := routes.NewRegistry(
		handler.NewSkillHandler(c.Skills),
		handler.NewMatchHandler(c.Match),
		handler.NewTradeHandler(c.Trades),
		auth,
	)
	registry.Register(app)

	wsHandler := ws.NewHandler(c.Hub, c.Broker, c.JWT, logger)
	app.Get("/ws", wsHandler.HandleEventsWS)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
