package agent

import (
	"time"

	"github.com/DeganAI/slippage-sentinel/business/slippage/domain"
)

// EventKind classifies what happened to a request.
type EventKind int

const (
	EventEstimate EventKind = iota
	EventPaymentVerified
	EventPaymentRejected
	EventRateLimited
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEstimate:
		return "estimate"
	case EventPaymentVerified:
		return "payment_verified"
	case EventPaymentRejected:
		return "payment_rejected"
	case EventRateLimited:
		return "rate_limited"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted after a request has been handled.
type Event struct {
	Kind        EventKind
	Time        time.Time
	RequestID   string
	Path        string
	Status      int
	Request     domain.Request
	Estimate    domain.Estimate
	Facilitator string
	Payer       string
	Err         error
}

// Observer receives request events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
