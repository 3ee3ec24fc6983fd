// Package asset models on-chain assets and exact base-unit amounts.
// Amounts are big.Int in the smallest unit; decimal.Decimal appears only at
// parsing and display boundaries.
package asset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	caipNamespace = "eip155"
	nativeRef     = "native"
	erc20Ref      = "erc20"
)

// AssetID is a CAIP-19 style identity: an EVM chain plus a token contract.
// The zero address stands for the chain's gas coin.
type AssetID struct {
	chainID uint64
	address common.Address
}

func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID panics on the zero address, which is reserved for native coins.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero")
	}
	return AssetID{chainID: chainID, address: addr}
}

// ParseAssetID reads "eip155:<chain>/native" or "eip155:<chain>/erc20:<address>".
func ParseAssetID(s string) (AssetID, error) {
	chainPart, assetPart, ok := strings.Cut(s, "/")
	if !ok {
		return AssetID{}, fmt.Errorf("asset id %q: missing asset reference", s)
	}
	ns, ref, ok := strings.Cut(chainPart, ":")
	if !ok || ns != caipNamespace {
		return AssetID{}, fmt.Errorf("asset id %q: unsupported chain namespace", s)
	}
	chainID, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || chainID == 0 {
		return AssetID{}, fmt.Errorf("asset id %q: bad chain reference", s)
	}

	if assetPart == nativeRef {
		return NewNativeAssetID(chainID), nil
	}
	kind, addr, ok := strings.Cut(assetPart, ":")
	if !ok || kind != erc20Ref || !common.IsHexAddress(addr) {
		return AssetID{}, fmt.Errorf("asset id %q: bad asset reference", s)
	}
	a := common.HexToAddress(addr)
	if a == (common.Address{}) {
		return AssetID{}, fmt.Errorf("asset id %q: zero token address", s)
	}
	return AssetID{chainID: chainID, address: a}, nil
}

func (id AssetID) ChainID() uint64         { return id.chainID }
func (id AssetID) Address() common.Address { return id.address }
func (id AssetID) IsNative() bool          { return id.address == (common.Address{}) }

func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("%s:%d/%s", caipNamespace, id.chainID, nativeRef)
	}
	return fmt.Sprintf("%s:%d/%s:%s", caipNamespace, id.chainID, erc20Ref, id.address.Hex())
}

// Asset attaches display metadata to an AssetID. Symbols are not unique
// across chains.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset panics on an empty symbol or more than 30 decimals; assets are
// declared at init time or from validated config.
func NewAsset(id AssetID, symbol, name string, decimals uint8) *Asset {
	switch {
	case symbol == "":
		panic("asset: empty symbol")
	case decimals > 30:
		panic(fmt.Sprintf("asset: %s has %d decimals", symbol, decimals))
	}
	return &Asset{id: id, symbol: symbol, name: name, decimals: decimals}
}

func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	return NewAsset(NewNativeAssetID(chainID), symbol, name, decimals)
}

func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return NewAsset(NewTokenAssetID(chainID, address), symbol, name, decimals)
}

func (a *Asset) ID() AssetID             { return a.id }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }
func (a *Asset) ChainID() uint64         { return a.id.chainID }
func (a *Asset) Address() common.Address { return a.id.address }
func (a *Asset) IsNative() bool          { return a.id.IsNative() }
func (a *Asset) String() string          { return a.symbol }

// Name falls back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}
