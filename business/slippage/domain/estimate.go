// Package domain contains the slippage heuristic and its value types.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	baseSlippage       = decimal.RequireFromString("0.5")
	depthDivisor       = decimal.NewFromInt(100_000)
	maxDepthComponent  = decimal.NewFromInt(2)
	majorVolatility    = decimal.RequireFromString("0.3")
	defaultVolatility  = decimal.RequireFromString("0.5")
	maxRecommended     = decimal.NewFromInt(5)
	confidentThreshold = decimal.NewFromInt(2)
	highConfidence     = decimal.RequireFromString("0.95")
	lowConfidence      = decimal.RequireFromString("0.85")
	assumedPoolDepth   = decimal.NewFromInt(1_000_000)
)

// majorSymbols mark a pair as involving a major asset; matching is by substring.
var majorSymbols = []string{"ETH", "BTC"}

// Routes is the fixed list of aggregators suggested for every pair.
var Routes = []string{"Uniswap V3", "1inch", "ParaSwap"}

// Request describes a swap to size a tolerance for.
type Request struct {
	TokenIn   string
	TokenOut  string
	AmountUSD decimal.Decimal
	ChainID   int64
}

// Estimate is the recommended tolerance with its supporting figures. Percentages
// are in percentage points, so 0.81 means 0.81%.
type Estimate struct {
	RecommendedSlippage decimal.Decimal
	DepthComponent      decimal.Decimal
	RecentVolatility    decimal.Decimal
	PoolDepthUSD        decimal.Decimal
	SuccessProbability  decimal.Decimal
	AlternativeRoutes   []string
}

// Clamped reports whether the 5% ceiling was applied.
func (e Estimate) Clamped() bool {
	return baseSlippage.Add(e.DepthComponent).Add(e.RecentVolatility).GreaterThan(maxRecommended)
}

// DepthComponent is the trade-size buffer: amount/100k, capped at 2 points.
func DepthComponent(amountUSD decimal.Decimal) decimal.Decimal {
	return decimal.Min(amountUSD.Div(depthDivisor), maxDepthComponent)
}

// VolatilityComponent is 0.3 when either symbol contains ETH or BTC, ignoring case, else 0.5.
func VolatilityComponent(tokenIn, tokenOut string) decimal.Decimal {
	in, out := strings.ToUpper(tokenIn), strings.ToUpper(tokenOut)
	for _, sym := range majorSymbols {
		if strings.Contains(in, sym) || strings.Contains(out, sym) {
			return majorVolatility
		}
	}
	return defaultVolatility
}

// SuccessProbability is a step: 0.95 below 2%, 0.85 otherwise.
func SuccessProbability(recommended decimal.Decimal) decimal.Decimal {
	if recommended.LessThan(confidentThreshold) {
		return highConfidence
	}
	return lowConfidence
}

// EstimateSlippage computes the tolerance for req. It performs no I/O and
// keeps no state; the chain id does not influence the result.
func EstimateSlippage(req Request) Estimate {
	depth := DepthComponent(req.AmountUSD)
	vol := VolatilityComponent(req.TokenIn, req.TokenOut)

	recommended := decimal.Min(baseSlippage.Add(depth).Add(vol), maxRecommended)

	routes := make([]string, len(Routes))
	copy(routes, Routes)

	return Estimate{
		RecommendedSlippage: recommended,
		DepthComponent:      depth,
		RecentVolatility:    vol,
		PoolDepthUSD:        assumedPoolDepth,
		SuccessProbability:  SuccessProbability(recommended),
		AlternativeRoutes:   routes,
	}
}
