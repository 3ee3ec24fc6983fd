// Package facilitator calls x402 facilitators' /verify endpoint.
package facilitator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/DeganAI/slippage-sentinel/business/payment/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/circuitbreaker"
	"github.com/DeganAI/slippage-sentinel/internal/httpclient"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

const maxReasonLen = 256

// Config holds configuration for one facilitator.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the settings used for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Timeout: 10 * time.Second,
	}
}

type verifyRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      json.RawMessage     `json:"paymentPayload"`
	PaymentRequirements domain.Requirements `json:"paymentRequirements"`
}

// Client implements app.Facilitator over HTTP.
type Client struct {
	name    string
	baseURL string
	http    httpclient.Client
	cb      *circuitbreaker.CircuitBreaker[domain.VerifyResult]
	logger  logger.LoggerInterface
}

// NewClient creates a facilitator client. Extra options are passed to the HTTP client.
func NewClient(cfg Config, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("facilitator url "+cfg.BaseURL))
	}

	c := &Client{
		name:    u.Host,
		baseURL: cfg.BaseURL,
		logger:  log,
	}

	opts = append([]httpclient.ClientOption{
		httpclient.WithProviderName(c.name),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	}, opts...)

	c.http, err = httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig("facilitator-" + c.name)
	breakerCfg.ConsecutiveFailures = 3
	// a rejected payment is a healthy facilitator
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.GetCode(err) == apperror.CodePaymentInvalid
	}
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[domain.VerifyResult](breakerCfg)

	return c, nil
}

// Name is the facilitator host, e.g. facilitator.daydreams.systems.
func (c *Client) Name() string {
	return c.name
}

// Verify posts the payload and requirements to <base>/verify.
func (c *Client) Verify(ctx context.Context, payload json.RawMessage, req domain.Requirements) (domain.VerifyResult, error) {
	return c.cb.Execute(func() (domain.VerifyResult, error) {
		return c.verify(ctx, payload, req)
	})
}

func (c *Client) verify(ctx context.Context, payload json.RawMessage, req domain.Requirements) (domain.VerifyResult, error) {
	var result domain.VerifyResult

	resp, err := c.http.NewRequest(httpclient.WithLabel("operation", "verify")).
		SetBody(verifyRequest{
			X402Version:         domain.X402Version,
			PaymentPayload:      payload,
			PaymentRequirements: req,
		}).
		SetResult(&result).
		Post(ctx, c.baseURL+"/verify")
	if err != nil {
		return domain.VerifyResult{}, apperror.New(apperror.CodeFacilitatorUnavailable,
			apperror.WithMessage("Facilitator unavailable: "+err.Error()),
			apperror.WithContext(c.name),
			apperror.WithCause(err))
	}

	if resp.StatusCode != http.StatusOK {
		code := apperror.CodePaymentInvalid
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			code = apperror.CodeFacilitatorUnavailable
		}
		return domain.VerifyResult{}, apperror.New(code,
			apperror.WithMessage("Payment verification failed: "+truncate(resp.String())),
			apperror.WithContext(fmt.Sprintf("%s returned %d", c.name, resp.StatusCode)))
	}

	if resp.Result() == nil {
		return domain.VerifyResult{}, apperror.New(apperror.CodeFacilitatorUnavailable,
			apperror.WithMessage("Verification error: unreadable facilitator response"),
			apperror.WithContext(c.name))
	}

	return result, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxReasonLen {
		return s[:maxReasonLen] + "..."
	}
	return s
}
