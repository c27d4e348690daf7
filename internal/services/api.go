package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"photoedit/config"
	"photoedit/internal/clients/editservice"
	"photoedit/internal/editor"
	"photoedit/web"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
)

type Api struct {
	server   *fiber.App
	backend  *editservice.Client
	hub      *Hub
	runner   *EditRunner
	sessions *SessionStore
	previews *editor.PreviewStore
	metrics  *Metrics

	port           string
	allowedOrigins string
	cancel         context.CancelFunc
}

func NewApi(ctx context.Context, backend *editservice.Client, config config.Config) *Api {
	if config.Api.AllowedOrigins == "" {
		config.Api.AllowedOrigins = "*"
	}
	ctx, cancel := context.WithCancel(ctx)

	previews := editor.NewPreviewStore()
	hub := NewHub()
	sessions := NewSessionStore(config.Api.SessionTTL(), func() *editor.Editor {
		return editor.New(backend, previews)
	})
	metrics := NewMetrics(sessions.Len, hub.Len)

	a := &Api{
		server: fiber.New(fiber.Config{
			Views:                 html.NewFileSystem(http.FS(web.Templates()), ".html"),
			BodyLimit:             config.Api.BodyLimitMB << 20,
			DisableStartupMessage: true,
			// handlers keep form values and cookies past the request
			Immutable: true,
		}),
		backend:        backend,
		hub:            hub,
		runner:         NewEditRunner(ctx, hub, metrics, config.Runner),
		sessions:       sessions,
		previews:       previews,
		metrics:        metrics,
		port:           config.Api.Port,
		allowedOrigins: config.Api.AllowedOrigins,
		cancel:         cancel,
	}

	allowCredentials := a.allowedOrigins != "*"

	a.server.Use(RequestLogger(a.metrics))
	a.server.Use(cors.New(cors.Config{
		AllowOrigins:     a.allowedOrigins,
		AllowCredentials: allowCredentials,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,Accept,Origin",
	}))

	a.addRoutes()

	a.runner.Run()
	a.sessions.Run(ctx)
	return a
}

// Start blocks until the listener fails or Shutdown is called.
func (a *Api) Start() error {
	log.Info("editor listening", "component", "api", "port", a.port, "backend", a.backend.BaseURL())
	return a.server.Listen(fmt.Sprint(":", a.port))
}

// Shutdown closes notification sockets first so the server does not wait on
// them, then drains the runner.
func (a *Api) Shutdown(timeout time.Duration) error {
	a.hub.Shutdown()
	err := a.server.ShutdownWithTimeout(timeout)
	a.runner.Shutdown()
	a.cancel()
	return err
}

func (a *Api) addRoutes() {
	a.server.Use("/static", filesystem.New(filesystem.Config{
		Root: http.FS(web.Static()),
	}))

	a.server.Add("GET", "/", a.Index())
	a.server.Add("GET", "/state", a.State())
	a.server.Add("POST", "/image", a.SelectImage())
	a.server.Add("POST", "/prompt", a.SetPrompt())
	a.server.Add("POST", "/edit", a.StartEdit())
	a.server.Add("GET", "/preview/:ref", a.Preview())

	a.server.Add("GET", "/health", a.Health())
	a.server.Add("GET", "/metrics", a.metrics.Handler())

	// websocket connection
	a.server.Use("/ws", a.WsUpgrade())
	a.server.Get("/ws/:id", a.Notifications())
}
