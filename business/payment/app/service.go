package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeganAI/slippage-sentinel/business/payment/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/asset"
	"github.com/DeganAI/slippage-sentinel/internal/cache"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

const (
	tracerName = "github.com/DeganAI/slippage-sentinel/business/payment/app"
	meterName  = "github.com/DeganAI/slippage-sentinel/business/payment/app"
)

// Settings are the payment terms advertised in every 402.
type Settings struct {
	FreeMode          bool
	Network           string
	PayTo             common.Address
	Price             asset.Amount
	MaxTimeoutSeconds int
	ReplayTTL         time.Duration
}

type paymentMetrics struct {
	verifications metric.Int64Counter
	latencyMs     metric.Float64Histogram
}

// PaymentService implements Gate. Facilitators are tried in order; the first valid answer wins.
type PaymentService struct {
	settings     Settings
	facilitators []Facilitator
	seen         *cache.Cache[string, time.Time]
	logger       logger.LoggerInterface

	tracer  trace.Tracer
	metrics *paymentMetrics
}

// NewPaymentService creates the gate.
func NewPaymentService(settings Settings, facilitators []Facilitator, log logger.LoggerInterface) (*PaymentService, error) {
	if settings.Price.Asset() == nil {
		return nil, errors.New("payment price has no asset")
	}
	if settings.ReplayTTL <= 0 {
		settings.ReplayTTL = 10 * time.Minute
	}

	s := &PaymentService{
		settings:     settings,
		facilitators: facilitators,
		seen:         cache.New[string, time.Time](time.Minute),
		logger:       log,
		tracer:       otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *PaymentService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &paymentMetrics{}

	s.metrics.verifications, err = meter.Int64Counter(
		"payment_verifications_total",
		metric.WithDescription("x402 payment verifications by outcome"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return err
	}

	s.metrics.latencyMs, err = meter.Float64Histogram(
		"payment_verification_latency_ms",
		metric.WithDescription("Time spent verifying a payment"),
		metric.WithUnit("ms"),
	)
	return err
}

// FreeMode reports whether payments are waived.
func (s *PaymentService) FreeMode() bool {
	return s.settings.FreeMode
}

// Price returns the per-call price.
func (s *PaymentService) Price() asset.Amount {
	return s.settings.Price
}

// Requirements returns the exact-scheme terms for resource.
func (s *PaymentService) Requirements(resource, description string) domain.Requirements {
	return domain.Requirements{
		Scheme:            domain.SchemeExact,
		Network:           s.settings.Network,
		MaxAmountRequired: s.settings.Price.BaseUnits(),
		Resource:          resource,
		Description:       description,
		MimeType:          domain.MimeTypeJSON,
		PayTo:             s.settings.PayTo.Hex(),
		MaxTimeoutSeconds: s.settings.MaxTimeoutSeconds,
		Asset:             s.settings.Price.Asset().Address().Hex(),
	}
}

// Verify checks header against req. Errors are AppErrors with status 402 whose
// Message is safe to return to the client.
func (s *PaymentService) Verify(ctx context.Context, header string, req domain.Requirements) (domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "payment.verify",
		trace.WithAttributes(attribute.String("resource", req.Resource)),
	)
	defer span.End()

	start := time.Now()
	receipt, outcome, err := s.verify(ctx, header, req)

	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("facilitator", receipt.Facilitator),
	)
	s.metrics.verifications.Add(ctx, 1, attrs)
	s.metrics.latencyMs.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return domain.Receipt{}, err
	}
	span.SetStatus(codes.Ok, "verified")
	return receipt, nil
}

func (s *PaymentService) verify(ctx context.Context, header string, req domain.Requirements) (domain.Receipt, string, error) {
	if header == "" {
		return domain.Receipt{}, "missing", apperror.PaymentRequired(apperror.CodePaymentRequired, req.Resource, nil)
	}

	payload, err := domain.DecodeHeader(header)
	if err != nil {
		return domain.Receipt{}, "malformed", apperror.New(apperror.CodePaymentMalformed,
			apperror.WithMessage("Invalid payment header format: "+err.Error()),
			apperror.WithCause(err))
	}

	if err := domain.Precheck(payload, req, s.settings.Price); err != nil {
		s.logger.Info(ctx, "payment rejected locally", "reason", err.Error())
		return domain.Receipt{}, "rejected", apperror.New(apperror.CodePaymentInvalid,
			apperror.WithMessage(err.Error()),
			apperror.WithCause(err))
	}

	key := domain.ReplayKey(payload)
	if _, used := s.seen.Get(ctx, key); used {
		return domain.Receipt{}, "replayed", apperror.New(apperror.CodePaymentReplayed)
	}

	result, facilitator, err := s.askFacilitators(ctx, payload, req)
	if err != nil {
		return domain.Receipt{}, "rejected", err
	}

	if !s.seen.SetIfAbsent(ctx, key, time.Now(), s.settings.ReplayTTL) {
		return domain.Receipt{}, "replayed", apperror.New(apperror.CodePaymentReplayed)
	}

	s.logger.Info(ctx, "payment verified", "facilitator", facilitator, "payer", result.Payer)
	return domain.Receipt{Success: true, Payer: result.Payer, Facilitator: facilitator}, "verified", nil
}

// askFacilitators returns the first valid result. When all fail the last reason is reported.
func (s *PaymentService) askFacilitators(ctx context.Context, payload domain.Payload, req domain.Requirements) (domain.VerifyResult, string, error) {
	if len(s.facilitators) == 0 {
		return domain.VerifyResult{}, "", apperror.New(apperror.CodeFacilitatorUnavailable,
			apperror.WithMessage("No facilitators configured"))
	}

	var (
		lastErr     error
		unavailable = true
	)
	for _, f := range s.facilitators {
		res, err := f.Verify(ctx, payload.Raw, req)
		if err != nil {
			s.logger.Debug(ctx, "facilitator error", "facilitator", f.Name(), "error", err)
			if apperror.GetCode(err) != apperror.CodeFacilitatorUnavailable &&
				apperror.GetCode(err) != apperror.CodeCircuitOpen {
				unavailable = false
			}
			lastErr = err
			continue
		}
		if res.IsValid {
			return res, f.Name(), nil
		}

		unavailable = false
		reason := res.InvalidReason
		if reason == "" {
			reason = "Unknown reason"
		}
		s.logger.Debug(ctx, "payment invalid at facilitator", "facilitator", f.Name(), "reason", reason)
		lastErr = apperror.New(apperror.CodePaymentInvalid, apperror.WithMessage(reason))
	}

	s.logger.Warn(ctx, "payment verification failed with all facilitators", "last_error", lastErr)

	code := apperror.CodePaymentInvalid
	if unavailable {
		code = apperror.CodeFacilitatorUnavailable
	}
	return domain.VerifyResult{}, "", apperror.New(code,
		apperror.WithMessage(clientMessage(lastErr)),
		apperror.WithCause(lastErr))
}

func clientMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Close stops the replay guard's janitor.
func (s *PaymentService) Close() error {
	s.seen.Close()
	return nil
}
