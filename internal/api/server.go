// Package api exposes ingestion and the read model over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// shutdownTimeout bounds how long in-flight requests may finish after the server is asked to stop.
const shutdownTimeout = 10 * time.Second

// Ingestor runs one ingestion for a repository.
type Ingestor interface {
	Ingest(ctx context.Context, owner, repo string) (schema.IngestOutcome, error)
}

// Server wires handlers, middleware and routes onto a fiber app.
type Server struct {
	app  *fiber.App
	addr string
}

// NewServer builds the HTTP app without starting it.
func NewServer(cfg *contract.Config, ing Ingestor, mgr contract.StoreManager) *Server {
	app := fiber.New(fiber.Config{
		AppName: "codepulse API",
	})

	app.Use(recoverer.New())
	app.Use(cors.New())
	app.Use(logger.New())

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, NewHandler(ing, mgr))

	return &Server{app: app, addr: cfg.Addr}
}

// App returns the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		contract.LogInfo("Starting codepulse API on %s", s.addr)
		errCh <- s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		contract.LogInfo("Shutting down codepulse API")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}
