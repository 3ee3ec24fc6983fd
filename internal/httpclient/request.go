package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes a single call.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)
	Post(ctx context.Context, url string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQuery(key, value string) Request
	SetResult(result any) Request
}

// Response is the buffered upstream response.
type Response struct {
	*http.Response
	body      []byte
	truncated bool
	result    any
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// Truncated reports whether the body exceeded the client's read limit.
func (r *Response) Truncated() bool {
	return r.truncated
}

// IsError reports a status of 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Result returns the value passed to SetResult when the body decoded into it, else nil.
func (r *Response) Result() any {
	return r.result
}

type requestBuilder struct {
	client  *InstrumentedClient
	headers http.Header
	query   url.Values
	labels  []attribute.KeyValue
	body    any
	result  any
}

func (r *requestBuilder) Get(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, url)
}

func (r *requestBuilder) Post(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, url)
}

// SetBody sets the request body. Values other than []byte, string and io.Reader are JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers.Set(key, value)
	return r
}

func (r *requestBuilder) SetQuery(key, value string) Request {
	r.query.Add(key, value)
	return r
}

// SetResult sets the value a JSON body is decoded into.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) encodeBody() (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		if r.headers.Get("Content-Type") == "" {
			r.headers.Set("Content-Type", "application/json")
		}
		return bytes.NewReader(raw), nil
	}
}

func (r *requestBuilder) execute(ctx context.Context, method, rawURL string) (*Response, error) {
	c := r.client
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "http.client."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("provider", c.providerName),
		}, r.labels...)...),
	)
	defer span.End()

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, r.fail(ctx, span, start, fmt.Errorf("parse url: %w", err))
	}
	if len(r.query) > 0 {
		q := target.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	span.SetAttributes(attribute.String("http.url", target.Redacted()))

	body, err := r.encodeBody()
	if err != nil {
		return nil, r.fail(ctx, span, start, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, r.fail(ctx, span, start, fmt.Errorf("create request: %w", err))
	}
	req.Header = r.headers
	r.annotateHeaders(span, req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, r.fail(ctx, span, start, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, r.fail(ctx, span, start, fmt.Errorf("read response body: %w", err))
	}

	out := &Response{Response: resp, body: raw}
	if int64(len(raw)) > c.maxResponseBytes {
		out.body = raw[:c.maxResponseBytes]
		out.truncated = true
		span.SetAttributes(attribute.Bool("http.response_truncated", true))
	}

	if r.result != nil && len(out.body) > 0 && !out.truncated {
		if err := json.Unmarshal(out.body, r.result); err != nil {
			span.AddEvent("response.decode_failed", trace.WithAttributes(attribute.String("error", err.Error())))
		} else {
			out.result = r.result
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if out.IsError() {
		span.SetStatus(codes.Error, resp.Status)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	r.record(ctx, start, resp.StatusCode, !out.IsError())

	return out, nil
}

func (r *requestBuilder) fail(ctx context.Context, span trace.Span, start time.Time, err error) error {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.record(ctx, start, 0, false)
	return err
}

func (r *requestBuilder) record(ctx context.Context, start time.Time, status int, success bool) {
	attrs := append([]attribute.KeyValue{
		attribute.String("provider", r.client.providerName),
		attribute.Bool("success", success),
		attribute.Int("status", status),
	}, r.labels...)
	set := metric.WithAttributes(attrs...)

	r.client.instruments.requests.Add(ctx, 1, set)
	r.client.instruments.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)
}

func (r *requestBuilder) annotateHeaders(span trace.Span, headers http.Header) {
	if !span.IsRecording() || len(headers) == 0 {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(headers))
	for k := range headers {
		key := strings.ToLower(k)
		val := headers.Get(k)
		if r.client.redacted[key] {
			val = "*****"
		}
		attrs = append(attrs, attribute.String("http.request.header."+key, val))
	}
	span.AddEvent("request.headers", trace.WithAttributes(attrs...))
}
