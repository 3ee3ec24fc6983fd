package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeganAI/slippage-sentinel/business/slippage/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

const (
	tracerName = "github.com/DeganAI/slippage-sentinel/business/slippage"
	meterName  = "github.com/DeganAI/slippage-sentinel/business/slippage"
)

type serviceMetrics struct {
	estimates   metric.Int64Counter
	rejected    metric.Int64Counter
	recommended metric.Float64Histogram
}

// SlippageService validates requests and runs the estimator.
type SlippageService struct {
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewSlippageService creates a new SlippageService.
func NewSlippageService(log logger.LoggerInterface) (*SlippageService, error) {
	s := &SlippageService{
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SlippageService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.estimates, err = meter.Int64Counter(
		"slippage_estimates_total",
		metric.WithDescription("Total slippage estimates served"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	s.metrics.rejected, err = meter.Int64Counter(
		"slippage_requests_rejected_total",
		metric.WithDescription("Estimate requests rejected by validation"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	s.metrics.recommended, err = meter.Float64Histogram(
		"slippage_recommended_percent",
		metric.WithDescription("Recommended slippage tolerance"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(0.5, 0.75, 1, 1.5, 2, 2.5, 3, 4, 5),
	)
	return err
}

// Validate rejects requests the estimator cannot meaningfully size.
func Validate(req domain.Request) error {
	if strings.TrimSpace(req.TokenIn) == "" {
		return apperror.Validation(apperror.CodeInvalidToken, "token_in")
	}
	if strings.TrimSpace(req.TokenOut) == "" {
		return apperror.Validation(apperror.CodeInvalidToken, "token_out")
	}
	if !req.AmountUSD.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidAmount, "amount_usd")
	}
	if req.ChainID <= 0 {
		return apperror.Validation(apperror.CodeInvalidChainID, "chain_id")
	}
	return nil
}

// Estimate implements Estimator.
func (s *SlippageService) Estimate(ctx context.Context, req domain.Request) (domain.Estimate, error) {
	ctx, span := s.tracer.Start(ctx, "slippage.estimate",
		trace.WithAttributes(
			attribute.String("token_in", req.TokenIn),
			attribute.String("token_out", req.TokenOut),
			attribute.Int64("chain_id", req.ChainID),
			attribute.String("amount_usd", req.AmountUSD.String()),
		),
	)
	defer span.End()

	if err := Validate(req); err != nil {
		s.metrics.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(apperror.GetCode(err))),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return domain.Estimate{}, err
	}

	est := domain.EstimateSlippage(req)

	recommended := est.RecommendedSlippage.InexactFloat64()
	chainAttr := metric.WithAttributes(attribute.Int64("chain_id", req.ChainID))
	s.metrics.estimates.Add(ctx, 1, chainAttr)
	s.metrics.recommended.Record(ctx, recommended, chainAttr)

	span.SetAttributes(
		attribute.Float64("recommended_slippage", recommended),
		attribute.Float64("success_probability", est.SuccessProbability.InexactFloat64()),
	)
	span.SetStatus(codes.Ok, "estimated")

	s.logger.Debug(ctx, "slippage estimated",
		"token_in", req.TokenIn,
		"token_out", req.TokenOut,
		"amount_usd", req.AmountUSD.String(),
		"chain_id", req.ChainID,
		"recommended", est.RecommendedSlippage.String(),
	)

	return est, nil
}
