// Package di contains dependency injection tokens for the payment context.
package di

import (
	"github.com/DeganAI/slippage-sentinel/business/payment/app"
	"github.com/DeganAI/slippage-sentinel/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Gate = di.NewToken[app.Gate]("payment.Gate")
)

// Private tokens
var (
	Facilitators = di.NewToken[[]app.Facilitator]("payment.Facilitators")
)

func GetGate(c di.ServiceRegistry) app.Gate {
	return di.GetToken(c, Gate)
}

func GetFacilitators(c di.ServiceRegistry) []app.Facilitator {
	return di.GetToken(c, Facilitators)
}
