// Package di contains dependency injection tokens for the slippage context.
package di

import (
	"github.com/DeganAI/slippage-sentinel/business/slippage/app"
	"github.com/DeganAI/slippage-sentinel/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Estimator = di.NewToken[app.Estimator]("slippage.Estimator")
)

func GetEstimator(c di.ServiceRegistry) app.Estimator {
	return di.GetToken(c, Estimator)
}
