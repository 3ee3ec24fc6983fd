package payment

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentDI "github.com/DeganAI/slippage-sentinel/business/payment/di"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/monolith"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Version: "test"},
		Payment: config.PaymentConfig{
			PayTo:             "0x01D11F7e1a46AbFC6092d7be484895D2d505095c",
			Network:           "base",
			AssetAddress:      "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			AssetChainID:      8453,
			Price:             "0.05",
			MaxTimeoutSeconds: 30,
			Facilitators:      []string{"https://facilitator.daydreams.systems", "https://api.cdp.coinbase.com/platform/v2/x402/facilitator"},
			VerifyTimeout:     time.Second,
			ReplayTTL:         time.Minute,
		},
	}
}

func TestModule_WiresGate(t *testing.T) {
	mono := monolith.New(testConfig(), logger.Nop(), &Module{})
	require.NoError(t, mono.Boot(context.Background()))
	t.Cleanup(func() { mono.Close() })

	gate := paymentDI.GetGate(mono.Services())
	req := gate.Requirements("https://sentinel.test/x", "d")
	assert.Equal(t, "50000", req.MaxAmountRequired)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", req.Asset)
	assert.False(t, gate.FreeMode())

	facilitators := paymentDI.GetFacilitators(mono.Services())
	require.Len(t, facilitators, 2)
	assert.Equal(t, "facilitator.daydreams.systems", facilitators[0].Name())
	assert.Equal(t, "api.cdp.coinbase.com", facilitators[1].Name())
}

func TestResolveAsset_UnknownTokenRegistered(t *testing.T) {
	reg := asset.DefaultRegistry()
	cfg := config.PaymentConfig{
		AssetAddress: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		AssetChainID: 137,
	}

	a, err := resolveAsset(reg, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), a.Decimals())
	got, ok := reg.GetToken(137, common.HexToAddress(cfg.AssetAddress))
	require.True(t, ok)
	assert.Equal(t, a.ID(), got.ID())
}

func TestResolveAsset_CAIPOverride(t *testing.T) {
	reg := asset.DefaultRegistry()
	cfg := config.PaymentConfig{
		Asset:        "eip155:1/erc20:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		AssetAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	}

	a, err := resolveAsset(reg, cfg)
	require.NoError(t, err)
	assert.Same(t, asset.USDCEthereum, a)

	_, err = resolveAsset(reg, config.PaymentConfig{Asset: "eip155:1/native"})
	assert.Error(t, err)
}
