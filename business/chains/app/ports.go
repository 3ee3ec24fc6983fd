// Package app contains the chain catalogue service and its ports.
package app

import (
	"context"

	"github.com/DeganAI/slippage-sentinel/business/chains/domain"
)

// RPCProber checks that an RPC endpoint serves the expected chain.
type RPCProber interface {
	Probe(ctx context.Context, chain domain.Chain, rpcURL string) (domain.ProbeResult, error)
}
