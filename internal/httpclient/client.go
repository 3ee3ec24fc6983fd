package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond
	defaultMaxResponseBytes      = 1 << 20

	instrumentationName = "github.com/DeganAI/slippage-sentinel/internal/httpclient"

	metricRequestCounter = "http_client_requests_total"
	metricRequestLatency = "http_client_request_duration_ms"
)

// Client builds instrumented requests against upstream JSON APIs.
type Client interface {
	NewRequest(opts ...RequestOption) Request
}

type instruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// InstrumentedClient wraps http.Client with an otelhttp transport, a request
// span per call and request metrics tagged with the provider name.
type InstrumentedClient struct {
	client           *http.Client
	providerName     string
	tracer           trace.Tracer
	instruments      instruments
	headers          map[string]string
	redacted         map[string]bool
	maxResponseBytes int64
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	o := newClientOptions(opts...)

	transport := o.roundTripper
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	timeout := defaultRequestTimeout
	if o.requestTimeout > 0 {
		timeout = o.requestTimeout
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	providerName := o.providerName
	if providerName == "" {
		providerName = "default"
	}

	meterProvider := o.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	meter := meterProvider.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)

	var (
		inst instruments
		err  error
	)
	inst.requests, err = meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Total number of outbound HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	inst.latency, err = meter.Float64Histogram(metricRequestLatency,
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	maxBytes := o.maxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}

	return &InstrumentedClient{
		client:           httpClient,
		providerName:     providerName,
		tracer:           tracer,
		instruments:      inst,
		headers:          o.headers,
		redacted:         o.redacted,
		maxResponseBytes: maxBytes,
	}, nil
}

// NewRequest starts a request carrying the client's default headers.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	ro := newRequestOptions(opts...)

	headers := make(http.Header, len(c.headers))
	for k, v := range c.headers {
		headers.Set(k, v)
	}

	return &requestBuilder{
		client:  c,
		headers: headers,
		labels:  ro.labels,
		query:   make(map[string][]string),
	}
}
