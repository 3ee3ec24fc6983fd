// Package monolith hosts the bounded contexts of the service in one process.
// Each context is a Module: it first registers its services in the shared
// container, then starts once every module has registered.
package monolith

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/DeganAI/slippage-sentinel/internal/asset"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/di"
	"github.com/DeganAI/slippage-sentinel/internal/health"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

// Service names every module can resolve from the container.
const (
	ServiceConfig        = "config"
	ServiceLogger        = "logger"
	ServiceAssetRegistry = "assetRegistry"
	ServiceHealth        = "health"
)

// Monolith is what a starting module sees of the process.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Health() *health.Registry
	Services() di.ServiceRegistry
	OnClose(io.Closer)
}

type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App is the process-wide Monolith.
type App struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	assets    *asset.Registry
	checks    *health.Registry
	container di.Container
	modules   []Module
	closers   []io.Closer
}

// New builds the shared services. Modules run in the order given.
func New(cfg *config.Config, log logger.LoggerInterface, modules ...Module) *App {
	a := &App{
		cfg:       cfg,
		log:       log,
		assets:    asset.DefaultRegistry(),
		checks:    health.NewRegistry(cfg.App.Version, cfg.Chains.ProbeTimeout),
		container: di.NewContainer(),
		modules:   modules,
	}
	a.container.Register(ServiceConfig, cfg)
	a.container.Register(ServiceLogger, log)
	a.container.Register(ServiceAssetRegistry, a.assets)
	a.container.Register(ServiceHealth, a.checks)
	return a
}

func (a *App) Config() *config.Config         { return a.cfg }
func (a *App) Logger() logger.LoggerInterface { return a.log }
func (a *App) AssetRegistry() *asset.Registry { return a.assets }
func (a *App) Health() *health.Registry       { return a.checks }
func (a *App) Services() di.ServiceRegistry   { return a.container }

// OnClose registers a resource for Close. Resources close in reverse order.
func (a *App) OnClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

// Boot registers every module, then starts them. The first failure stops
// the sequence and names the module.
func (a *App) Boot(ctx context.Context) error {
	for _, m := range a.modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	for _, m := range a.modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
		a.log.Debug(ctx, "module started", "module", fmt.Sprintf("%T", m))
	}
	return nil
}

// Close releases registered resources and joins their errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
