package app

import (
	"context"
	"strconv"

	"github.com/DeganAI/slippage-sentinel/business/chains/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
)

// ChainService exposes the supported-chain catalogue.
type ChainService struct {
	chains []domain.Chain
	byID   map[int64]domain.Chain
	rpc    map[int64]string
	prober RPCProber
}

// NewChainService builds the catalogue. rpcOverrides is keyed by chain slug.
// Each chain's native coin is added to registry when missing.
func NewChainService(rpcOverrides map[string]string, registry *asset.Registry, prober RPCProber) *ChainService {
	s := &ChainService{
		chains: make([]domain.Chain, 0, len(domain.Catalog)),
		byID:   make(map[int64]domain.Chain, len(domain.Catalog)),
		rpc:    make(map[int64]string, len(domain.Catalog)),
		prober: prober,
	}

	for _, c := range domain.Catalog {
		s.chains = append(s.chains, c)
		s.byID[c.ID] = c

		s.rpc[c.ID] = c.DefaultRPC
		if url, ok := rpcOverrides[c.Slug]; ok && url != "" {
			s.rpc[c.ID] = url
		}

		if registry != nil {
			registry.RegisterIfAbsent(asset.NewNative(uint64(c.ID), c.Symbol, c.Name, 18))
		}
	}

	return s
}

// List returns the catalogue in display order.
func (s *ChainService) List() []domain.Chain {
	out := make([]domain.Chain, len(s.chains))
	copy(out, s.chains)
	return out
}

// IDs returns the supported chain ids in display order.
func (s *ChainService) IDs() []int64 {
	ids := make([]int64, len(s.chains))
	for i, c := range s.chains {
		ids[i] = c.ID
	}
	return ids
}

func (s *ChainService) IsSupported(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the chain or a CodeChainNotSupported error.
func (s *ChainService) Get(id int64) (domain.Chain, error) {
	c, ok := s.byID[id]
	if !ok {
		return domain.Chain{}, apperror.New(apperror.CodeChainNotSupported,
			apperror.WithContext("chain_id="+strconv.FormatInt(id, 10)))
	}
	return c, nil
}

// RPCURL returns the endpoint used for id.
func (s *ChainService) RPCURL(id int64) string {
	return s.rpc[id]
}

// Probe checks the RPC endpoint of a supported chain.
func (s *ChainService) Probe(ctx context.Context, id int64) (domain.ProbeResult, error) {
	c, err := s.Get(id)
	if err != nil {
		return domain.ProbeResult{}, err
	}
	if s.prober == nil {
		return domain.ProbeResult{}, apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithContext("rpc probing disabled"))
	}
	return s.prober.Probe(ctx, c, s.rpc[id])
}
