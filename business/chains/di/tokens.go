// Package di contains dependency injection tokens for the chains context.
package di

import (
	"github.com/DeganAI/slippage-sentinel/business/chains/app"
	"github.com/DeganAI/slippage-sentinel/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("chains.ChainService")
)

// Private tokens
var (
	RPCProber = di.NewToken[app.RPCProber]("chains.RPCProber")
)

func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetRPCProber(c di.ServiceRegistry) app.RPCProber {
	return di.GetToken(c, RPCProber)
}
