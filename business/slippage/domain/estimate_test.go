package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEstimateSlippage(t *testing.T) {
	tests := []struct {
		name            string
		tokenIn         string
		tokenOut        string
		amountUSD       string
		wantDepth       string
		wantVolatility  string
		wantRecommended string
		wantSuccess     string
	}{
		{
			name:            "weth_usdc_small_trade",
			tokenIn:         "WETH",
			tokenOut:        "USDC",
			amountUSD:       "1000",
			wantDepth:       "0.01",
			wantVolatility:  "0.3",
			wantRecommended: "0.81",
			wantSuccess:     "0.95",
		},
		{
			name:            "stable_pair_mid_trade",
			tokenIn:         "DAI",
			tokenOut:        "USDT",
			amountUSD:       "50000",
			wantDepth:       "0.5",
			wantVolatility:  "0.5",
			wantRecommended: "1.5",
			wantSuccess:     "0.95",
		},
		{
			name:            "stable_pair_depth_saturated",
			tokenIn:         "DAI",
			tokenOut:        "USDT",
			amountUSD:       "1000000",
			wantDepth:       "2",
			wantVolatility:  "0.5",
			wantRecommended: "3",
			wantSuccess:     "0.85",
		},
		{
			name:            "wbtc_whale_trade",
			tokenIn:         "WBTC",
			tokenOut:        "USDC",
			amountUSD:       "10000000",
			wantDepth:       "2",
			wantVolatility:  "0.3",
			wantRecommended: "2.8",
			wantSuccess:     "0.85",
		},
		{
			name:            "lowercase_eth_in_token_out",
			tokenIn:         "usdc",
			tokenOut:        "steth",
			amountUSD:       "100000",
			wantDepth:       "1",
			wantVolatility:  "0.3",
			wantRecommended: "1.8",
			wantSuccess:     "0.95",
		},
		{
			name:            "exactly_two_percent_is_low_confidence",
			tokenIn:         "DAI",
			tokenOut:        "USDT",
			amountUSD:       "100000",
			wantDepth:       "1",
			wantVolatility:  "0.5",
			wantRecommended: "2",
			wantSuccess:     "0.85",
		},
		{
			name:            "address_tokens_use_default_volatility",
			tokenIn:         "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			tokenOut:        "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			amountUSD:       "250",
			wantDepth:       "0.0025",
			wantVolatility:  "0.5",
			wantRecommended: "1.0025",
			wantSuccess:     "0.95",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateSlippage(Request{
				TokenIn:   tt.tokenIn,
				TokenOut:  tt.tokenOut,
				AmountUSD: decimal.RequireFromString(tt.amountUSD),
				ChainID:   1,
			})

			assertDecimal(t, "depth", got.DepthComponent, tt.wantDepth)
			assertDecimal(t, "volatility", got.RecentVolatility, tt.wantVolatility)
			assertDecimal(t, "recommended", got.RecommendedSlippage, tt.wantRecommended)
			assertDecimal(t, "success", got.SuccessProbability, tt.wantSuccess)
			assertDecimal(t, "pool depth", got.PoolDepthUSD, "1000000")

			if len(got.AlternativeRoutes) != 3 ||
				got.AlternativeRoutes[0] != "Uniswap V3" ||
				got.AlternativeRoutes[1] != "1inch" ||
				got.AlternativeRoutes[2] != "ParaSwap" {
				t.Errorf("routes = %v", got.AlternativeRoutes)
			}
		})
	}
}

func TestDepthComponentMonotonicAndSaturating(t *testing.T) {
	prev := decimal.Zero
	for _, amount := range []int64{1, 10, 999, 1000, 50_000, 199_999, 200_000, 200_001, 5_000_000, 1_000_000_000} {
		d := DepthComponent(decimal.NewFromInt(amount))

		if d.LessThan(prev) {
			t.Errorf("depth decreased at %d: %s < %s", amount, d, prev)
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(2)) {
			t.Errorf("depth out of range at %d: %s", amount, d)
		}
		if amount >= 200_000 && !d.Equal(decimal.NewFromInt(2)) {
			t.Errorf("depth should saturate at %d, got %s", amount, d)
		}
		prev = d
	}
}

func TestRecommendedNeverExceedsCeiling(t *testing.T) {
	pairs := [][2]string{{"WETH", "USDC"}, {"DAI", "USDT"}, {"", ""}, {"PEPE", "SHIB"}}
	amounts := []string{"0.01", "1", "123456.789", "199999.99", "1e12"}

	for _, p := range pairs {
		for _, a := range amounts {
			got := EstimateSlippage(Request{TokenIn: p[0], TokenOut: p[1], AmountUSD: decimal.RequireFromString(a)})
			if got.RecommendedSlippage.GreaterThan(decimal.NewFromInt(5)) {
				t.Errorf("%v %s: recommended %s above ceiling", p, a, got.RecommendedSlippage)
			}
			if got.Clamped() {
				t.Errorf("%v %s: ceiling should be unreachable with current components", p, a)
			}

			wantSuccess := "0.85"
			if got.RecommendedSlippage.LessThan(decimal.NewFromInt(2)) {
				wantSuccess = "0.95"
			}
			assertDecimal(t, "success", got.SuccessProbability, wantSuccess)
		}
	}
}

func TestVolatilityComponent(t *testing.T) {
	tests := []struct {
		in, out string
		want    string
	}{
		{"ETH", "USDC", "0.3"},
		{"USDC", "cbBTC", "0.3"},
		{"weth", "dai", "0.3"},
		{"DAI", "USDT", "0.5"},
		{"", "", "0.5"},
		{"ET", "H", "0.5"},
	}

	for _, tt := range tests {
		assertDecimal(t, tt.in+"/"+tt.out, VolatilityComponent(tt.in, tt.out), tt.want)
	}
}

func TestEstimateIgnoresChainAndReturnsFreshRoutes(t *testing.T) {
	a := EstimateSlippage(Request{TokenIn: "WETH", TokenOut: "USDC", AmountUSD: decimal.NewFromInt(1000), ChainID: 1})
	b := EstimateSlippage(Request{TokenIn: "WETH", TokenOut: "USDC", AmountUSD: decimal.NewFromInt(1000), ChainID: 999999})

	if !a.RecommendedSlippage.Equal(b.RecommendedSlippage) {
		t.Errorf("chain id changed the result: %s vs %s", a.RecommendedSlippage, b.RecommendedSlippage)
	}

	a.AlternativeRoutes[0] = "mutated"
	if Routes[0] != "Uniswap V3" || b.AlternativeRoutes[0] != "Uniswap V3" {
		t.Error("estimates must not share the routes slice")
	}
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got.String(), want)
	}
}
