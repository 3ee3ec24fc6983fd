package ui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DeganAI/slippage-sentinel/internal/agent"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

const queueSize = 256

// Dashboard runs the Bubble Tea program and feeds it from request events and
// log records. Messages are queued so producers never block on the UI.
type Dashboard struct {
	program *tea.Program
	queue   chan tea.Msg
	dropped atomic.Uint64
}

// NewDashboard creates the dashboard. Options are passed to tea.NewProgram.
func NewDashboard(opts ...tea.ProgramOption) *Dashboard {
	return &Dashboard{
		program: tea.NewProgram(New(), opts...),
		queue:   make(chan tea.Msg, queueSize),
	}
}

// Observe implements agent.Observer.
func (d *Dashboard) Observe(e agent.Event) {
	d.Send(EventMsg{Event: e})
}

// LogHook forwards warnings and errors to the dashboard.
func (d *Dashboard) LogHook() logger.EventFunc {
	return func(_ context.Context, level logger.Level, msg string) {
		switch level {
		case logger.LevelWarn:
			d.Send(LogMsg{Level: "warn", Message: msg})
		case logger.LevelError:
			d.Send(LogMsg{Level: "error", Message: msg})
		}
	}
}

// Send queues msg, dropping it when the queue is full.
func (d *Dashboard) Send(msg tea.Msg) {
	select {
	case d.queue <- msg:
	default:
		d.dropped.Add(1)
	}
}

// Dropped reports how many messages were discarded.
func (d *Dashboard) Dropped() uint64 {
	return d.dropped.Load()
}

// Run blocks until the user quits or ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case msg := <-d.queue:
				d.program.Send(msg)
			case <-ctx.Done():
				d.program.Quit()
				return
			case <-done:
				return
			}
		}
	}()

	_, err := d.program.Run()
	return err
}
