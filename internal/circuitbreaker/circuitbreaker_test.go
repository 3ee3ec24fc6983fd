package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/DeganAI/slippage-sentinel/internal/apperror"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("facilitator")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[string](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (string, error) { return "", boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected underlying error, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (string, error) {
		called = true
		return "ok", nil
	})
	if called {
		t.Error("open breaker should not invoke fn")
	}
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeCircuitOpen)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestBreakerPassesResults(t *testing.T) {
	cb := New[int](DefaultConfig("probe"))

	got, err := cb.Execute(func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Fatalf("Execute = %d, %v", got, err)
	}
	if cb.Name() != "probe" {
		t.Errorf("Name = %q", cb.Name())
	}
}

func TestIsSuccessfulExcludesErrors(t *testing.T) {
	cfg := DefaultConfig("verify")
	cfg.ConsecutiveFailures = 1
	rejected := errors.New("payment rejected")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, rejected)
	}

	cb := New[bool](cfg)
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (bool, error) { return false, rejected })
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("business rejections should not trip the breaker, state = %s", cb.State())
	}
}
