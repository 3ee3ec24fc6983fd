// Package payment implements the x402 payment gate bounded context.
package payment

import (
	"context"
	"io"

	"github.com/DeganAI/slippage-sentinel/business/payment/app"
	paymentDI "github.com/DeganAI/slippage-sentinel/business/payment/di"
	"github.com/DeganAI/slippage-sentinel/business/payment/infra/facilitator"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/di"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/monolith"
)

// Module implements the payment bounded context.
type Module struct{}

// RegisterServices registers the facilitator clients and the gate.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Facilitators (private - tried in configured order)
	di.RegisterToken(c, paymentDI.Facilitators, func(sr di.ServiceRegistry) []app.Facilitator {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		out := make([]app.Facilitator, 0, len(cfg.Payment.Facilitators))
		for _, u := range cfg.Payment.Facilitators {
			fcfg := facilitator.DefaultConfig(u)
			if cfg.Payment.VerifyTimeout > 0 {
				fcfg.Timeout = cfg.Payment.VerifyTimeout
			}
			client, err := facilitator.NewClient(fcfg, log)
			if err != nil {
				panic("failed to create facilitator client: " + err.Error())
			}
			out = append(out, client)
		}
		return out
	})

	// Register Gate (public - used by the HTTP layer)
	di.RegisterToken(c, paymentDI.Gate, func(sr di.ServiceRegistry) app.Gate {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		settlement, err := resolveAsset(registry, cfg.Payment)
		if err != nil {
			if !cfg.Payment.FreeMode {
				panic("invalid settlement asset: " + err.Error())
			}
			settlement = asset.USDCBase
		}
		price, err := asset.ParseDecimal(settlement, cfg.Payment.PriceDecimal())
		if err != nil {
			panic("invalid payment price: " + err.Error())
		}

		svc, err := app.NewPaymentService(app.Settings{
			FreeMode:          cfg.Payment.FreeMode,
			Network:           cfg.Payment.Network,
			PayTo:             cfg.Payment.PayToAddress(),
			Price:             price,
			MaxTimeoutSeconds: cfg.Payment.MaxTimeoutSeconds,
			ReplayTTL:         cfg.Payment.ReplayTTL,
		}, paymentDI.GetFacilitators(sr), log)
		if err != nil {
			panic("failed to create payment service: " + err.Error())
		}
		return svc
	})

	return nil
}

// resolveAsset finds the settlement token, registering an unknown one as a 6-decimal stablecoin.
func resolveAsset(registry *asset.Registry, cfg config.PaymentConfig) (*asset.Asset, error) {
	id, err := cfg.SettlementAssetID()
	if err != nil {
		return nil, err
	}
	if a, ok := registry.Get(id); ok {
		return a, nil
	}
	a := asset.NewAsset(id, "USDC", "USD Coin", 6)
	registry.RegisterIfAbsent(a)
	return a, nil
}

// Startup resolves the gate and logs the advertised terms.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	gate := paymentDI.GetGate(mono.Services())

	if c, ok := gate.(io.Closer); ok {
		mono.OnClose(c)
	}

	cfg := mono.Config().Payment
	if gate.FreeMode() {
		log.Warn(ctx, "payment module started in free mode, payments are not enforced")
		return nil
	}

	log.Info(ctx, "payment module started",
		"pay_to", cfg.PayToAddress().Hex(),
		"network", cfg.Network,
		"price", cfg.Price,
		"facilitators", len(paymentDI.GetFacilitators(mono.Services())),
	)
	return nil
}
