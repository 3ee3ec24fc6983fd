package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/DeganAI/slippage-sentinel/internal/asset"
)

// PrecheckError explains why a payment was rejected without contacting a facilitator.
type PrecheckError struct {
	Reason string
}

func (e *PrecheckError) Error() string {
	return e.Reason
}

func rejectf(format string, args ...any) error {
	return &PrecheckError{Reason: fmt.Sprintf(format, args...)}
}

// Precheck validates what can be checked locally: scheme, network, recipient and amount.
// Payloads without an exact EVM authorization are left to the facilitator.
func Precheck(p Payload, req Requirements, price asset.Amount) error {
	if p.Scheme != "" && p.Scheme != req.Scheme {
		return rejectf("unsupported scheme %q, expected %q", p.Scheme, req.Scheme)
	}
	if p.Network != "" && !strings.EqualFold(p.Network, req.Network) {
		return rejectf("wrong network %q, expected %q", p.Network, req.Network)
	}

	exact, err := p.ExactEVM()
	if err != nil {
		return rejectf("malformed exact payload: %v", err)
	}
	if exact == nil {
		return nil
	}
	auth := exact.Authorization

	if !common.IsHexAddress(auth.To) {
		return rejectf("invalid authorization recipient %q", auth.To)
	}
	if common.HexToAddress(auth.To) != common.HexToAddress(req.PayTo) {
		return rejectf("authorization pays %s, expected %s", common.HexToAddress(auth.To).Hex(), common.HexToAddress(req.PayTo).Hex())
	}

	paid, err := asset.ParseBaseUnits(price.Asset(), auth.Value)
	if err != nil {
		return rejectf("invalid authorization value %q", auth.Value)
	}
	enough, err := paid.AtLeast(price)
	if err != nil {
		return rejectf("%v", err)
	}
	if !enough {
		return rejectf("insufficient amount: paid %s, required %s", paid, price)
	}

	return nil
}

// ReplayKey identifies a payment for the replay guard. The authorization nonce is used when
// present, otherwise the keccak256 of the raw payload.
func ReplayKey(p Payload) string {
	if exact, err := p.ExactEVM(); err == nil && exact != nil && exact.Authorization.Nonce != "" {
		from := common.HexToAddress(exact.Authorization.From).Hex()
		return "nonce:" + from + ":" + strings.ToLower(exact.Authorization.Nonce)
	}
	return "payload:" + crypto.Keccak256Hash(p.Raw).Hex()
}
