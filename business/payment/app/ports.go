// Package app contains the x402 payment gate service and its ports.
package app

import (
	"context"
	"encoding/json"

	"github.com/DeganAI/slippage-sentinel/business/payment/domain"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
)

// Facilitator verifies a payment payload against requirements.
type Facilitator interface {
	Name() string
	Verify(ctx context.Context, payload json.RawMessage, req domain.Requirements) (domain.VerifyResult, error)
}

// Gate is what the HTTP layer needs to charge for a request.
type Gate interface {
	FreeMode() bool
	Price() asset.Amount
	Requirements(resource, description string) domain.Requirements
	Verify(ctx context.Context, header string, req domain.Requirements) (domain.Receipt, error)
}
