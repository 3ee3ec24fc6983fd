package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Method      string            `json:"method"`
	Query       string            `json:"query"`
	ContentType string            `json:"content_type"`
	Accept      string            `json:"accept"`
	Body        map[string]string `json:"body"`
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			var body map[string]string
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			json.NewEncoder(w).Encode(echo{
				Method:      r.Method,
				Query:       r.URL.RawQuery,
				ContentType: r.Header.Get("Content-Type"),
				Accept:      r.Header.Get("Accept"),
				Body:        body,
			})
		case "/text":
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "upstream exploded")
		case "/large":
			io.WriteString(w, strings.Repeat("x", 64))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequest_PostJSON(t *testing.T) {
	srv := newEchoServer(t)

	c, err := NewInstrumentedClient(
		WithProviderName("echo"),
		WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	require.NoError(t, err)

	var got echo
	resp, err := c.NewRequest(WithLabel("operation", "test")).
		SetBody(map[string]string{"hello": "world"}).
		SetQuery("a", "1").
		SetQuery("b", "x y").
		SetResult(&got).
		Post(context.Background(), srv.URL+"/echo")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.IsError())
	require.NotNil(t, resp.Result())
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "a=1&b=x+y", got.Query)
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, "application/json", got.Accept)
	assert.Equal(t, map[string]string{"hello": "world"}, got.Body)
}

func TestRequest_ErrorStatusKeepsBody(t *testing.T) {
	srv := newEchoServer(t)
	c, err := NewInstrumentedClient()
	require.NoError(t, err)

	var out map[string]any
	resp, err := c.NewRequest().SetResult(&out).Get(context.Background(), srv.URL+"/text")
	require.NoError(t, err)

	assert.True(t, resp.IsError())
	assert.Equal(t, "upstream exploded", resp.String())
	assert.Nil(t, resp.Result(), "non-JSON body must not report a result")
}

func TestRequest_ResponseLimit(t *testing.T) {
	srv := newEchoServer(t)
	c, err := NewInstrumentedClient(WithMaxResponseBytes(16))
	require.NoError(t, err)

	resp, err := c.NewRequest().Get(context.Background(), srv.URL+"/large")
	require.NoError(t, err)

	assert.True(t, resp.Truncated())
	assert.Len(t, resp.Body(), 16)
}

func TestRequest_Timeout(t *testing.T) {
	srv := newEchoServer(t)
	c, err := NewInstrumentedClient(WithRequestTimeout(50 * time.Millisecond))
	require.NoError(t, err)

	_, err = c.NewRequest().Get(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestRequest_BadURL(t *testing.T) {
	c, err := NewInstrumentedClient()
	require.NoError(t, err)

	_, err = c.NewRequest().Get(context.Background(), "://nope")
	assert.Error(t, err)
}
