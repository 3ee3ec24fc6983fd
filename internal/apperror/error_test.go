package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestDefaultStatusCode(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{name: "invalid_amount", code: CodeInvalidAmount, want: http.StatusBadRequest},
		{name: "invalid_request_body", code: CodeInvalidRequestBody, want: http.StatusBadRequest},
		{name: "payment_required", code: CodePaymentRequired, want: http.StatusPaymentRequired},
		{name: "payment_replayed", code: CodePaymentReplayed, want: http.StatusPaymentRequired},
		{name: "facilitator_unavailable", code: CodeFacilitatorUnavailable, want: http.StatusPaymentRequired},
		{name: "chain_not_supported", code: CodeChainNotSupported, want: http.StatusNotFound},
		{name: "rpc_connection", code: CodeChainRPCConnection, want: http.StatusServiceUnavailable},
		{name: "rate_limited", code: CodeRateLimitExceeded, want: http.StatusTooManyRequests},
		{name: "required_field", code: CodeRequiredField, want: http.StatusBadRequest},
		{name: "circuit_open", code: CodeCircuitOpen, want: http.StatusServiceUnavailable},
		{name: "method_not_allowed", code: CodeMethodNotAllowed, want: http.StatusMethodNotAllowed},
		{name: "unknown", code: CodeInternalError, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.code).StatusCode; got != tt.want {
				t.Errorf("status for %s = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	err := Wrap(cause, CodeChainRPCConnection, "chain 1")
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if GetCode(err) != CodeChainRPCConnection {
		t.Errorf("code = %s", GetCode(err))
	}
	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", err.StatusCode)
	}
	if got := err.Error(); got != "CHAIN_RPC_CONNECTION_FAILED: Failed to reach chain RPC endpoint [chain 1]: dial tcp: refused" {
		t.Errorf("Error() = %q", got)
	}

	again := Wrap(err, CodeInternalError, "ignored")
	if again != err {
		t.Error("wrapping an AppError should return it unchanged")
	}

	if Wrap(nil, CodeInternalError, "") != nil {
		t.Error("wrapping nil should return nil")
	}
	if GetCode(cause) != CodeInternalError {
		t.Errorf("foreign error code = %s", GetCode(cause))
	}
}

func TestIsComparesCodes(t *testing.T) {
	err := Validation(CodeInvalidToken, "token_in")
	if !errors.Is(err, New(CodeInvalidToken)) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(err, New(CodeInvalidAmount)) {
		t.Error("errors with different codes should not match")
	}
}

func TestStatusCodeHelper(t *testing.T) {
	if got := StatusCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error status = %d", got)
	}
	if got := StatusCode(TooManyRequests("client")); got != http.StatusTooManyRequests {
		t.Errorf("rate limit status = %d", got)
	}
}

func TestToResponse(t *testing.T) {
	err := Validation(CodeInvalidAmount, "amount_usd").WithTraceID("abc")

	raw, marshalErr := json.Marshal(err.ToResponse())
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	var resp map[string]map[string]any
	if unmarshalErr := json.Unmarshal(raw, &resp); unmarshalErr != nil {
		t.Fatal(unmarshalErr)
	}

	body, ok := resp["error"]
	if !ok {
		t.Fatalf("missing error object: %s", raw)
	}
	if body["code"] != string(CodeInvalidAmount) {
		t.Errorf("code = %v", body["code"])
	}
	if body["context"] != "amount_usd" {
		t.Errorf("context = %v", body["context"])
	}
	if body["traceId"] != "abc" {
		t.Errorf("traceId = %v", body["traceId"])
	}
	if body["message"] != messages[CodeInvalidAmount] {
		t.Errorf("message = %v", body["message"])
	}
}

func TestToResponse_OmitsEmpty(t *testing.T) {
	raw, err := json.Marshal(New(CodeNotFound).ToResponse())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "traceId") || strings.Contains(string(raw), "context") {
		t.Errorf("unexpected optional fields: %s", raw)
	}
}
