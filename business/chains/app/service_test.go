package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeganAI/slippage-sentinel/business/chains/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
)

type fakeProber struct {
	calls []string
	err   error
}

func (f *fakeProber) Probe(_ context.Context, c domain.Chain, rpcURL string) (domain.ProbeResult, error) {
	f.calls = append(f.calls, rpcURL)
	if f.err != nil {
		return domain.ProbeResult{}, f.err
	}
	return domain.ProbeResult{ChainID: c.ID, Healthy: true, BlockNumber: 42}, nil
}

func TestChainService_CatalogueOrder(t *testing.T) {
	svc := NewChainService(nil, nil, nil)

	assert.Equal(t, []int64{1, 137, 42161, 10, 8453, 56, 43114}, svc.IDs())

	list := svc.List()
	require.Len(t, list, 7)
	assert.Equal(t, "Ethereum", list[0].Name)
	assert.Equal(t, "AVAX", list[6].Symbol)

	list[0].Name = "mutated"
	assert.Equal(t, "Ethereum", svc.List()[0].Name, "List must return a copy")
}

func TestChainService_Get(t *testing.T) {
	svc := NewChainService(nil, nil, nil)

	c, err := svc.Get(8453)
	require.NoError(t, err)
	assert.Equal(t, "Base", c.Name)
	assert.True(t, svc.IsSupported(56))

	_, err = svc.Get(324)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeChainNotSupported, apperror.GetCode(err))
	assert.Equal(t, http.StatusNotFound, apperror.StatusCode(err))
	assert.False(t, svc.IsSupported(324))
}

func TestChainService_RPCOverrides(t *testing.T) {
	svc := NewChainService(map[string]string{
		"base":    "https://base.internal",
		"polygon": "",
	}, nil, nil)

	assert.Equal(t, "https://base.internal", svc.RPCURL(8453))
	assert.Equal(t, "https://polygon.llamarpc.com", svc.RPCURL(137), "blank override keeps the default")
	assert.Equal(t, "https://eth.llamarpc.com", svc.RPCURL(1))
}

func TestChainService_RegistersNativeAssets(t *testing.T) {
	reg := asset.NewRegistry()
	NewChainService(nil, reg, nil)

	for _, id := range []uint64{1, 10, 56, 137, 8453, 42161, 43114} {
		native, ok := reg.GetNative(id)
		require.True(t, ok, "native coin for %d", id)
		assert.Equal(t, uint8(18), native.Decimals())
	}
	bnb, _ := reg.GetNative(56)
	assert.Equal(t, "BNB", bnb.Symbol())
}

func TestChainService_Probe(t *testing.T) {
	prober := &fakeProber{}
	svc := NewChainService(map[string]string{"optimism": "https://op.internal"}, nil, prober)

	res, err := svc.Probe(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, res.Healthy)
	assert.Equal(t, []string{"https://op.internal"}, prober.calls)

	_, err = svc.Probe(context.Background(), 999)
	assert.Equal(t, apperror.CodeChainNotSupported, apperror.GetCode(err))
	assert.Len(t, prober.calls, 1, "unsupported chains are not probed")

	prober.err = errors.New("boom")
	_, err = svc.Probe(context.Background(), 1)
	assert.Error(t, err)
}

func TestChainService_ProbeDisabled(t *testing.T) {
	svc := NewChainService(nil, nil, nil)

	_, err := svc.Probe(context.Background(), 1)
	assert.Equal(t, apperror.CodeServiceUnavailable, apperror.GetCode(err))
}
