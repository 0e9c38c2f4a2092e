package server

import (
	"backend-locshare/internal/auth"
	"backend-locshare/internal/config"
	"backend-locshare/internal/monitor"
	"backend-locshare/internal/session"
	"backend-locshare/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Redis    *redis.Client
	Hub      *stream.Hub
	Sessions *session.Registry
	Monitor  *monitor.Monitor
}

func NewServer(cfg config.Config, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient, cfg.SubscriberBuffer)
	mon := monitor.New(hub)

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Redis:    redisClient,
		Hub:      hub,
		Sessions: session.NewRegistry(cfg.SessionTTL(), cfg.TrailCapacity, hub, mon),
		Monitor:  mon,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	sessions := s.App.Group("/sessions")
	session.RegisterRoutes(sessions, s.Sessions, s.Cfg.BaseURL, jwtMiddleware)
	stream.RegisterRoutes(sessions, s.Hub, s.Sessions.Exists)
	monitor.RegisterRoutes(sessions, s.Monitor, s.Sessions.Exists)
}
