// Package chains implements the supported-chain catalogue bounded context.
package chains

import (
	"context"
	"fmt"

	"github.com/DeganAI/slippage-sentinel/business/chains/app"
	chainsDI "github.com/DeganAI/slippage-sentinel/business/chains/di"
	"github.com/DeganAI/slippage-sentinel/business/chains/infra/ethereum"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/di"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/monolith"
)

// Module implements the chains bounded context.
type Module struct{}

// RegisterServices registers the catalogue and, when enabled, the RPC prober.
func (m *Module) RegisterServices(c di.Container) error {
	// Register RPCProber (private - nil when probing is disabled)
	di.RegisterToken(c, chainsDI.RPCProber, func(sr di.ServiceRegistry) app.RPCProber {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if !cfg.Chains.ProbeRPC {
			return nil
		}

		proberCfg := ethereum.DefaultProberConfig()
		if cfg.Chains.ProbeTimeout > 0 {
			proberCfg.Timeout = cfg.Chains.ProbeTimeout
		}
		prober, err := ethereum.NewProber(proberCfg, log)
		if err != nil {
			panic("failed to create rpc prober: " + err.Error())
		}
		return prober
	})

	// Register ChainService (public - exposed to other modules)
	di.RegisterToken(c, chainsDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)
		return app.NewChainService(cfg.Chains.RPCURLs, registry, chainsDI.GetRPCProber(sr))
	})

	return nil
}

// Startup registers one readiness check per chain when probing is enabled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := chainsDI.GetChainService(mono.Services())

	if prober, ok := chainsDI.GetRPCProber(mono.Services()).(*ethereum.Prober); ok && prober != nil {
		mono.OnClose(prober)

		for _, c := range svc.List() {
			id := c.ID
			mono.Health().RegisterCheck("rpc:"+c.Slug, func(ctx context.Context) (bool, string) {
				res, err := svc.Probe(ctx, id)
				if err != nil {
					return false, err.Error()
				}
				return true, fmt.Sprintf("block %d", res.BlockNumber)
			})
		}
	}

	log.Info(ctx, "chains module started", "chains", len(svc.IDs()), "probe_rpc", mono.Config().Chains.ProbeRPC)
	return nil
}
