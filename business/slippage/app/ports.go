// Package app contains the slippage application service and its ports.
package app

import (
	"context"

	"github.com/DeganAI/slippage-sentinel/business/slippage/domain"
)

// Estimator is the single capability the HTTP layer depends on.
type Estimator interface {
	Estimate(ctx context.Context, req domain.Request) (domain.Estimate, error)
}

