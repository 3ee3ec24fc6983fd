// Package ethereum probes EVM JSON-RPC endpoints with go-ethereum's ethclient.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeganAI/slippage-sentinel/business/chains/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/cache"
	"github.com/DeganAI/slippage-sentinel/internal/circuitbreaker"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

const (
	tracerName = "github.com/DeganAI/slippage-sentinel/business/chains/infra/ethereum"
	meterName  = "github.com/DeganAI/slippage-sentinel/business/chains/infra/ethereum"
)

// ProberConfig holds configuration for the RPC prober.
type ProberConfig struct {
	Timeout  time.Duration // per-probe deadline
	CacheTTL time.Duration // how long a result is reused
}

// DefaultProberConfig returns sensible defaults.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Timeout:  5 * time.Second,
		CacheTTL: 30 * time.Second,
	}
}

type proberMetrics struct {
	probes    metric.Int64Counter
	latencyMs metric.Float64Histogram
	cacheHits metric.Int64Counter
}

// Prober implements app.RPCProber. Clients and breakers are kept per chain.
type Prober struct {
	config ProberConfig
	logger logger.LoggerInterface

	mu       sync.Mutex
	clients  map[int64]*ethclient.Client
	breakers map[int64]*circuitbreaker.CircuitBreaker[domain.ProbeResult]

	results *cache.Cache[int64, domain.ProbeResult]

	tracer  trace.Tracer
	metrics *proberMetrics
}

// NewProber creates a new prober instance.
func NewProber(cfg ProberConfig, log logger.LoggerInterface) (*Prober, error) {
	p := &Prober{
		config:   cfg,
		logger:   log,
		clients:  make(map[int64]*ethclient.Client),
		breakers: make(map[int64]*circuitbreaker.CircuitBreaker[domain.ProbeResult]),
		results:  cache.New[int64, domain.ProbeResult](5 * time.Minute),
		tracer:   otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return p, nil
}

func (p *Prober) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &proberMetrics{}

	p.metrics.probes, err = meter.Int64Counter(
		"chain_probe_total",
		metric.WithDescription("Total chain RPC probes"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return err
	}

	p.metrics.latencyMs, err = meter.Float64Histogram(
		"chain_probe_latency_ms",
		metric.WithDescription("Chain RPC probe latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.cacheHits, err = meter.Int64Counter(
		"chain_probe_cache_hits_total",
		metric.WithDescription("Probe results served from cache"),
		metric.WithUnit("{hit}"),
	)
	return err
}

func (p *Prober) breaker(chainID int64) *circuitbreaker.CircuitBreaker[domain.ProbeResult] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[chainID]; ok {
		return cb
	}

	cfg := circuitbreaker.DefaultConfig(fmt.Sprintf("rpc-%d", chainID))
	cfg.ConsecutiveFailures = 3
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		p.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	cb := circuitbreaker.New[domain.ProbeResult](cfg)
	p.breakers[chainID] = cb
	return cb
}

func (p *Prober) client(ctx context.Context, chainID int64, rpcURL string) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}

	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	p.clients[chainID] = c
	return c, nil
}

// Probe dials the endpoint, checks eth_chainId against the catalogue and reads the head block.
func (p *Prober) Probe(ctx context.Context, chain domain.Chain, rpcURL string) (domain.ProbeResult, error) {
	ctx, span := p.tracer.Start(ctx, "chain.probe",
		trace.WithAttributes(
			attribute.Int64("chain_id", chain.ID),
			attribute.String("chain", chain.Name),
		),
	)
	defer span.End()

	if res, ok := p.results.Get(ctx, chain.ID); ok {
		p.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		if !res.Healthy {
			return res, apperror.New(apperror.CodeChainRPCConnection,
				apperror.WithContext("cached: "+res.Error))
		}
		return res, nil
	}

	start := time.Now()
	res, err := p.breaker(chain.ID).Execute(func() (domain.ProbeResult, error) {
		return p.probe(ctx, chain, rpcURL)
	})
	latency := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		res = domain.ProbeResult{
			ChainID:   chain.ID,
			Latency:   latency,
			Error:     err.Error(),
			CheckedAt: time.Now(),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		p.logger.Warn(ctx, "chain probe failed", "chain_id", chain.ID, "error", err)
	} else {
		span.SetAttributes(attribute.Int64("block_number", int64(res.BlockNumber)))
		span.SetStatus(codes.Ok, "healthy")
	}

	attrs := metric.WithAttributes(
		attribute.Int64("chain_id", chain.ID),
		attribute.String("outcome", outcome),
	)
	p.metrics.probes.Add(ctx, 1, attrs)
	p.metrics.latencyMs.Record(ctx, float64(latency.Milliseconds()), attrs)

	p.results.Set(ctx, chain.ID, res, p.config.CacheTTL)

	return res, err
}

func (p *Prober) probe(ctx context.Context, chain domain.Chain, rpcURL string) (domain.ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()

	client, err := p.client(ctx, chain.ID, rpcURL)
	if err != nil {
		return domain.ProbeResult{}, apperror.New(apperror.CodeChainRPCConnection,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("dial %s", chain.Name)))
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		return domain.ProbeResult{}, apperror.New(apperror.CodeChainRPCConnection,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("eth_chainId on %s", chain.Name)))
	}
	if id.Cmp(big.NewInt(chain.ID)) != 0 {
		return domain.ProbeResult{}, apperror.New(apperror.CodeChainIDMismatch,
			apperror.WithContext(fmt.Sprintf("%s: expected %d, got %s", chain.Name, chain.ID, id)))
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return domain.ProbeResult{}, apperror.New(apperror.CodeChainRPCConnection,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("eth_blockNumber on %s", chain.Name)))
	}

	return domain.ProbeResult{
		ChainID:     chain.ID,
		Healthy:     true,
		BlockNumber: head,
		Latency:     time.Since(start),
		CheckedAt:   time.Now(),
	}, nil
}

// Close releases RPC clients and stops the result cache.
func (p *Prober) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
	p.results.Close()
	return nil
}
