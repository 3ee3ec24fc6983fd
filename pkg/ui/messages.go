package ui

import (
	"github.com/DeganAI/slippage-sentinel/internal/agent"
)

// EventMsg carries a handled request into the dashboard.
type EventMsg struct {
	Event agent.Event
}

// LogMsg shows a warning or error log line in the dashboard.
type LogMsg struct {
	Level   string
	Message string
}

// StartedMsg is sent once the HTTP listener is up.
type StartedMsg struct {
	Addr      string
	PublicURL string
	FreeMode  bool
	Price     string
}

// StoppedMsg is sent when the server has exited.
type StoppedMsg struct {
	Err error
}

// TickMsg refreshes uptime and request rates.
type TickMsg struct{}
