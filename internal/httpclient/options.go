// Package httpclient provides an HTTP client for upstream JSON APIs with
// OpenTelemetry tracing and metrics.
package httpclient

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type clientOptions struct {
	meterProvider    metric.MeterProvider
	tracer           trace.Tracer
	providerName     string
	roundTripper     http.RoundTripper
	requestTimeout   time.Duration
	headers          map[string]string
	redacted         map[string]bool
	maxResponseBytes int64
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientOptions)

func newClientOptions(opts ...ClientOption) *clientOptions {
	o := &clientOptions{redacted: map[string]bool{"authorization": true}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *clientOptions) {
		o.meterProvider = mp
	}
}

// WithTracer overrides the tracer used for request spans.
func WithTracer(t trace.Tracer) ClientOption {
	return func(o *clientOptions) {
		o.tracer = t
	}
}

// WithProviderName tags metrics and spans with the upstream's name.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) {
		o.providerName = name
	}
}

// WithRoundTripper replaces the base transport. It is still wrapped by otelhttp.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout sets the overall per-request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.requestTimeout = timeout
	}
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithRedactedHeaders masks the named request headers on span events.
func WithRedactedHeaders(names ...string) ClientOption {
	return func(o *clientOptions) {
		for _, n := range names {
			o.redacted[strings.ToLower(n)] = true
		}
	}
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(n int64) ClientOption {
	return func(o *clientOptions) {
		o.maxResponseBytes = n
	}
}

type requestOptions struct {
	labels []attribute.KeyValue
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

func newRequestOptions(opts ...RequestOption) *requestOptions {
	o := &requestOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLabel adds a metric and span attribute to the request.
func WithLabel(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.labels = append(o.labels, attribute.String(key, value))
	}
}
