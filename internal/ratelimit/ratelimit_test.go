package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_PerClientBuckets(t *testing.T) {
	l := New(60, 2, time.Minute)
	defer l.Close()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third immediate request should be limited")
	}
	if !l.Allow("b") {
		t.Error("other clients keep their own bucket")
	}
	if l.Clients() != 2 {
		t.Errorf("Clients() = %d", l.Clients())
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(0, 0, 0)
	defer l.Close()

	if l.burst != 1 || l.idleTTL != 5*time.Minute {
		t.Errorf("burst=%d ttl=%s", l.burst, l.idleTTL)
	}
	if !l.Allow("x") {
		t.Error("first request should pass")
	}
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote_addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "real_ip", headers: map[string]string{"X-Real-IP": "203.0.113.5"}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "forwarded_single", headers: map[string]string{"X-Forwarded-For": "198.51.100.7"}, remote: "10.0.0.1:1", want: "198.51.100.7"},
		{name: "forwarded_chain", headers: map[string]string{"X-Forwarded-For": "198.51.100.8, 10.0.0.2"}, remote: "10.0.0.1:1", want: "198.51.100.8"},
		{name: "remote_without_port", remote: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientID(r); got != tt.want {
				t.Errorf("ClientID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := New(60, 1, time.Minute)
	defer l.Close()

	h := l.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
