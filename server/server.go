// Package server exposes the question-answering workflow over HTTP: a blocking
// chat endpoint, a server-sent-events stream, per-session chat history and a
// health check.
package server

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/lakegraph/kgqa/agent"
	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/store"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "知识图谱问答系统"

// DefaultSessionID is used when a request names no session.
const DefaultSessionID = "default"

// Workflow runs the agent; *agent.Runner implements it.
type Workflow interface {
	Run(ctx context.Context, query string) (*agent.WorkflowState, error)
	RunStream(ctx context.Context, query string, emit func(agent.StreamEvent))
	Mermaid() string
	Stages() []string
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP surface.
type Server struct {
	app      *fiber.App
	workflow Workflow
	sessions store.SessionStore

	corsOrigins string
	renderHTML  bool
	checks      map[string]HealthCheck

	// streams outlive their handlers; ctx is cancelled on shutdown
	ctx     context.Context
	cancel  context.CancelFunc
	streams sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed origins, comma separated. Default "*".
func WithCORSOrigins(origins string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRenderHTML adds final_answer_html to chat responses.
func WithRenderHTML(enabled bool) Option {
	return func(s *Server) {
		s.renderHTML = enabled
	}
}

// WithHealthCheck adds a dependency probe to the health endpoint.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// New builds the fiber app and registers the routes.
func New(workflow Workflow, sessions store.SessionStore, opts ...Option) *Server {
	s := &Server{
		workflow:    workflow,
		sessions:    sessions,
		corsOrigins: "*",
		renderHTML:  true,
		checks:      map[string]HealthCheck{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: s.corsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	s.app = app
	s.registerRoutes(app.Group("/api"))
	return s
}

func (s *Server) registerRoutes(api fiber.Router) {
	api.Get("/health", s.health)
	api.Get("/workflow/graph", s.workflowGraph)

	chat := api.Group("/chat")
	chat.Post("", s.chat)
	chat.Post("/stream", s.chatStream)
	chat.Get("/history/:session_id", s.history)
	chat.Delete("/history/:session_id", s.clearHistory)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Info("server listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests, cancels running streams and waits for
// them to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.app.ShutdownWithContext(ctx)

	done := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("shutdown: streams still running: %v", ctx.Err())
	}
	return err
}
