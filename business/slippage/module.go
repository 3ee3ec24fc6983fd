// Package slippage implements the slippage estimation bounded context.
package slippage

import (
	"context"

	"github.com/DeganAI/slippage-sentinel/business/slippage/app"
	slippageDI "github.com/DeganAI/slippage-sentinel/business/slippage/di"
	"github.com/DeganAI/slippage-sentinel/internal/di"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/monolith"
)

// Module implements the slippage bounded context.
type Module struct{}

// RegisterServices registers the estimator with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, slippageDI.Estimator, func(sr di.ServiceRegistry) app.Estimator {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		svc, err := app.NewSlippageService(log)
		if err != nil {
			panic("failed to create slippage service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup resolves the estimator so wiring errors surface before serving.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	_ = slippageDI.GetEstimator(mono.Services())
	mono.Logger().Info(ctx, "slippage module started")
	return nil
}
