// Package domain contains the supported-chain catalogue.
package domain

import "time"

// Chain is an EVM network the sentinel advertises.
type Chain struct {
	ID         int64
	Name       string
	Symbol     string
	Slug       string
	DefaultRPC string
}

// Catalog lists supported chains in display order.
var Catalog = []Chain{
	{ID: 1, Name: "Ethereum", Symbol: "ETH", Slug: "ethereum", DefaultRPC: "https://eth.llamarpc.com"},
	{ID: 137, Name: "Polygon", Symbol: "MATIC", Slug: "polygon", DefaultRPC: "https://polygon.llamarpc.com"},
	{ID: 42161, Name: "Arbitrum", Symbol: "ETH", Slug: "arbitrum", DefaultRPC: "https://arbitrum.llamarpc.com"},
	{ID: 10, Name: "Optimism", Symbol: "ETH", Slug: "optimism", DefaultRPC: "https://optimism.llamarpc.com"},
	{ID: 8453, Name: "Base", Symbol: "ETH", Slug: "base", DefaultRPC: "https://base.llamarpc.com"},
	{ID: 56, Name: "BNB Chain", Symbol: "BNB", Slug: "bsc", DefaultRPC: "https://bsc.llamarpc.com"},
	{ID: 43114, Name: "Avalanche", Symbol: "AVAX", Slug: "avalanche", DefaultRPC: "https://avalanche.llamarpc.com"},
}

// ProbeResult is the outcome of checking a chain's RPC endpoint.
type ProbeResult struct {
	ChainID     int64
	Healthy     bool
	BlockNumber uint64
	Latency     time.Duration
	Error       string
	CheckedAt   time.Time
}
