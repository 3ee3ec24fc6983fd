package apm

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{name: "empty", in: "", want: map[string]string{}},
		{name: "single", in: "x-honeycomb-team=abc", want: map[string]string{"x-honeycomb-team": "abc"}},
		{name: "multiple", in: "a=1, b = 2", want: map[string]string{"a": "1", "b": "2"}},
		{name: "value_with_equals", in: "auth=Basic a2V5=", want: map[string]string{"auth": "Basic a2V5="}},
		{name: "malformed_skipped", in: "novalue,=x,c=3", want: map[string]string{"c": "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHeaders(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseHeaders(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewTraceProvider_Disabled(t *testing.T) {
	tp, err := NewTraceProvider(context.Background(), config.TelemetryConfig{TraceProvider: "console"}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tp.(emptyProvider); !ok {
		t.Errorf("disabled telemetry should give the empty provider, got %T", tp)
	}
}

func TestNewTraceProvider_Errors(t *testing.T) {
	for _, p := range []string{"zipkin", "otlp", "otlp-http", "jaeger"} {
		t.Run(p, func(t *testing.T) {
			_, err := NewTraceProvider(context.Background(),
				config.TelemetryConfig{Enabled: true, TraceProvider: p}, logger.Nop())
			if err == nil {
				t.Errorf("provider %q without endpoint should fail", p)
			}
		})
	}
}

func TestNewTraceProvider_Console(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tp, err := NewTraceProvider(context.Background(),
		config.TelemetryConfig{Enabled: true, ServiceName: "sentinel-test", TraceProvider: "Console"},
		logger.Nop(), WithConsoleWriter(&buf))
	if err != nil {
		t.Fatal(err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "unit.span")
	span.End()

	if err := tp.Stop(); err != nil {
		t.Fatalf("Stop(): %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("unit.span")) {
		t.Errorf("console exporter output missing span: %s", buf.String())
	}
}
