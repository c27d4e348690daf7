package mediator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photoedit/config"
	"photoedit/internal/clients/editservice"
	"photoedit/internal/services"

	"github.com/charmbracelet/log"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	api     *services.Api
	backend *editservice.Client
	// settings
	Config *config.Config
}

func NewApp(ctx context.Context, config config.Config) (*App, error) {
	if config.Backend.URL == "" {
		return nil, errors.New("error creating newapp: backend url is empty")
	}

	backend := editservice.NewClient(config.Backend)
	api := services.NewApi(ctx, backend, config)

	return &App{
		api:     api,
		backend: backend,
		Config:  &config,
	}, nil
}

// Start serves until the listener fails or Shutdown is called. A failing
// backend health probe is logged, not fatal; the editor reports request
// errors to the user instead.
func (a *App) Start(ctx context.Context) error {
	probe, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if h, err := a.backend.Health(probe); err != nil {
		log.Warn("backend not reachable", "component", "mediator", "backend", a.backend.BaseURL(), "err", err)
	} else {
		log.Info("backend reachable", "component", "mediator", "backend", a.backend.BaseURL(), "status", h.Status)
	}

	if err := a.api.Start(); err != nil {
		return fmt.Errorf("api stopped: %w", err)
	}
	return nil
}

func (a *App) Shutdown() error {
	return a.api.Shutdown(shutdownTimeout)
}
