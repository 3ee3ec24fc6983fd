package asset

import "github.com/ethereum/go-ethereum/common"

// EVM chain ids served by the sentinel.
const (
	ChainIDEthereum  = 1
	ChainIDOptimism  = 10
	ChainIDBSC       = 56
	ChainIDPolygon   = 137
	ChainIDBase      = 8453
	ChainIDArbitrum  = 42161
	ChainIDAvalanche = 43114
)

var (
	AddrUSDCBase     = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// Native coins.
var (
	ETH     = NewNative(ChainIDEthereum, "ETH", "Ether", 18)
	ETHOp   = NewNative(ChainIDOptimism, "ETH", "Ether", 18)
	BNB     = NewNative(ChainIDBSC, "BNB", "BNB", 18)
	MATIC   = NewNative(ChainIDPolygon, "MATIC", "Polygon", 18)
	ETHBase = NewNative(ChainIDBase, "ETH", "Ether", 18)
	ETHArb  = NewNative(ChainIDArbitrum, "ETH", "Ether", 18)
	AVAX    = NewNative(ChainIDAvalanche, "AVAX", "Avalanche", 18)
)

// Settlement tokens.
var (
	USDCBase     = NewToken(ChainIDBase, AddrUSDCBase, "USDC", "USD Coin", 6)
	USDCEthereum = NewToken(ChainIDEthereum, AddrUSDCEthereum, "USDC", "USD Coin", 6)
)

// DefaultRegistry returns a registry holding the native coins and settlement tokens above.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{ETH, ETHOp, BNB, MATIC, ETHBase, ETHArb, AVAX, USDCBase, USDCEthereum} {
		r.Register(a)
	}
	return r
}
