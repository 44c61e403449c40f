// Package web serves the pages, the auth routes and the operational endpoints.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	fiberlog "github.com/tenantgate/tenantgate/internal/logger/adapter/fiber"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	"github.com/tenantgate/tenantgate/internal/web/handler/dashboard"
	"github.com/tenantgate/tenantgate/internal/web/handler/invitation"
	"github.com/tenantgate/tenantgate/internal/web/handler/login"
	"github.com/tenantgate/tenantgate/internal/web/handler/logout"
	"github.com/tenantgate/tenantgate/internal/web/handler/password"
	"github.com/tenantgate/tenantgate/internal/web/handler/signup"
)

// MetricsPath serves the prometheus metrics.
const MetricsPath = "/metrics"

// ErrNilDependency is returned when New is called without config or engine.
var ErrNilDependency = errors.New("web service needs config and auth engine")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	engine       *auth.Engine
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it stops.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the check alive probe for the configured time, then stops fiber.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the check alive probe answers OK.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// Views builds the page template engine on the embedded templates.
// In dev mode templates are read from disk and reloaded on every render.
func Views(devMode bool) *html.Engine {
	templateEngine := html.NewFileSystem(assetDir("templates"), ".gohtml")

	if devMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	titleCase := cases.Title(language.English)

	templateEngine.AddFunc("title", func(s string) string {
		return titleCase.String(s)
	})
	templateEngine.AddFunc("initial", func(s string) string {
		if s == "" {
			return "?"
		}

		return strings.ToUpper(s[:1])
	})

	return templateEngine
}

// New creates the web service. storage backs the auth rate limiter; nil keeps it in memory.
func New(cfg *config.Config, engine *auth.Engine, storage fiber.Storage) (*Service, error) {
	return newService(cfg, engine, storage, Views(cfg != nil && cfg.DevMode))
}

func newService(cfg *config.Config, engine *auth.Engine, storage fiber.Storage, views fiber.Views) (*Service, error) {
	if cfg == nil || engine == nil {
		return nil, ErrNilDependency
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          views,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		engine:       engine,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(engine.LoadSession())
	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
	}))

	if cfg.Webserver.CheckAliveURI != "" {
		app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)
	}

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root: assetDir("static"),
			},
		),
	)

	opts := engine.Options()

	api := app.Group(opts.BasePath,
		cors.New(cors.Config{
			AllowOrigins:     strings.Join(opts.TrustedOrigins, ","),
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		}),
		limiter.New(limiter.Config{
			Max:        cfg.Webserver.RateLimit,
			Expiration: time.Duration(cfg.Webserver.RateWindow) * time.Second,
			Storage:    storage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(auth.ErrorResponse{
					Code:    "TOO_MANY_REQUESTS",
					Message: "too many requests",
				})
			},
		}),
	)
	engine.Routes(api)

	// pages register their own routes
	for _, h := range []handler.Service{
		&login.Handler,
		&signup.Handler,
		&password.Handler,
		&invitation.Handler,
		&dashboard.Handler,
		&logout.Handler,
	} {
		if err := h.Init(app, cfg, engine); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	// redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(handler.DashboardPath)
	})

	return service, nil
}
