// Package http exposes the service over HTTP and WebSocket.
package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/coordinator"
	"github.com/dkorzhov/tasksync/internal/service"
	"github.com/dkorzhov/tasksync/internal/suggest"
)

// Server wires handlers into a fiber app.
type Server struct {
	app   *fiber.App
	coord *coordinator.Coordinator
	auth  service.AuthService
	sugg  suggest.Suggester
	log   *zap.Logger
}

// NewServer builds the app with middleware and routes registered.
func NewServer(coord *coordinator.Coordinator, auth service.AuthService, sugg suggest.Suggester, corsOrigins string, log *zap.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		coord: coord,
		auth:  auth,
		sugg:  sugg,
		log:   log,
	}

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	s.app.Use(s.requestLogger())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := s.app.Group("/api/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)
	auth.Get("/me", s.handleMe)

	tasks := s.app.Group("/api/tasks")
	tasks.Get("/", s.handleListTasks)
	tasks.Post("/", s.handleCreateTask)
	tasks.Get("/:id", s.handleGetTask)
	tasks.Put("/:id", s.handleUpdateTask)
	tasks.Patch("/:id/toggle", s.handleToggleTask)
	tasks.Delete("/:id", s.handleDeleteTask)

	s.app.Post("/api/ai/suggest", s.handleSuggest)

	s.app.Use("/ws", s.upgradeRequired)
	s.app.Get("/ws", s.wsHandler())
}

// requestLogger logs every request with its status and duration.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		s.log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		return err
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }
