// Package httpapi serves the brain façade over HTTP with fiber.
//
// Every route lives under /api/ub and passes through the same gates, in
// order: API key, sliding-window rate limit, then the handler.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aretw0/ubrain/pkg/brain"
)

// Prefix is the mount point of every route.
const Prefix = "/api/ub"

// Defaults of Config.
const (
	DefaultRateLimit  = 120
	DefaultRateWindow = 5 * time.Minute
)

// Config configures a Server.
type Config struct {
	// APIKey, when set, must be sent as the x-api-key header or the
	// api_key query parameter.
	APIKey string
	// RateLimit is the number of requests allowed per key and window.
	// A negative value disables rate limiting.
	RateLimit  int
	RateWindow time.Duration
	// TrustedProxies lists the peer IPs or CIDR ranges whose
	// X-Forwarded-For header names the client. Requests from any other
	// peer are keyed by the peer address.
	TrustedProxies []string
	Logger         *slog.Logger
}

// Server exposes a brain.Service over HTTP.
type Server struct {
	svc    *brain.Service
	cfg    Config
	logger *slog.Logger
	app    *fiber.App
}

// New creates a Server and registers its routes.
func New(svc *brain.Service, cfg Config) *Server {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{svc: svc, cfg: cfg, logger: cfg.Logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "ubrain",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,

		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.TrustedProxies,
		EnableIPValidation:      true,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group(Prefix, s.authenticate, s.rateLimiter())

	api.Get("/mapping", s.getMapping)
	api.Put("/mapping", s.putMapping)
	api.Get("/discover", s.discover)
	api.Get("/_state", s.state)

	api.Get("/studies", s.listStudies)
	api.Post("/studies", s.createStudy)
	api.Patch("/studies", s.updateStudy)
	api.Delete("/studies", s.archiveStudy)

	api.Get("/:entity", s.listEntity)
	api.Post("/:entity", s.createEntity)
	api.Patch("/:entity", s.updateEntity)
	api.Delete("/:entity", s.archiveEntity)
	api.Get("/:entity/:id", s.getEntity)
	api.Patch("/:entity/:id", s.updateEntity)
	api.Delete("/:entity/:id", s.archiveEntity)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
