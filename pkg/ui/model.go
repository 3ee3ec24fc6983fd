package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DeganAI/slippage-sentinel/internal/agent"
)

const (
	maxFeedRows = 10
	maxLogLines = 5
	tickEvery   = time.Second
)

// Counters are the running totals shown in the stats panel.
type Counters struct {
	Estimates        uint64
	PaymentsVerified uint64
	PaymentsRejected uint64
	RateLimited      uint64
	Errors           uint64
}

type feedRow struct {
	at          time.Time
	pair        string
	amount      string
	chainID     int64
	recommended string
	success     string
	clamped     bool
}

// Model is the dashboard state.
type Model struct {
	keys KeyMap
	help help.Model

	started   bool
	addr      string
	publicURL string
	freeMode  bool
	price     string
	startedAt time.Time
	now       time.Time

	counters Counters
	feed     []feedRow
	logs     []string
	paused   bool
	hideLogs bool
	stopErr  error
	width    int
}

// New creates the dashboard model.
func New() Model {
	now := time.Now()
	return Model{
		keys:      DefaultKeyMap(),
		help:      help.New(),
		startedAt: now,
		now:       now,
	}
}

// Counters returns a copy of the running totals.
func (m Model) Counters() Counters {
	return m.counters
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(time.Time) tea.Msg { return TickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.feed = nil
			m.logs = nil
		case key.Matches(msg, m.keys.Logs):
			m.hideLogs = !m.hideLogs
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case TickMsg:
		m.now = time.Now()
		return m, tick()

	case StartedMsg:
		m.started = true
		m.addr = msg.Addr
		m.publicURL = msg.PublicURL
		m.freeMode = msg.FreeMode
		m.price = msg.Price
		m.startedAt = time.Now()

	case StoppedMsg:
		m.stopErr = msg.Err
		return m, tea.Quit

	case LogMsg:
		m.logs = appendCapped(m.logs, fmt.Sprintf("%s %s", strings.ToUpper(msg.Level), msg.Message), maxLogLines)

	case EventMsg:
		m.apply(msg.Event)
	}

	return m, nil
}

func (m *Model) apply(e agent.Event) {
	switch e.Kind {
	case agent.EventEstimate:
		m.counters.Estimates++
		if m.paused {
			return
		}
		row := feedRow{
			at:          e.Time,
			pair:        e.Request.TokenIn + "/" + e.Request.TokenOut,
			amount:      "$" + e.Request.AmountUSD.StringFixedBank(0),
			chainID:     e.Request.ChainID,
			recommended: e.Estimate.RecommendedSlippage.StringFixed(2) + "%",
			success:     e.Estimate.SuccessProbability.Shift(2).StringFixed(0) + "%",
			clamped:     e.Estimate.Clamped(),
		}
		m.feed = append([]feedRow{row}, m.feed...)
		if len(m.feed) > maxFeedRows {
			m.feed = m.feed[:maxFeedRows]
		}
	case agent.EventPaymentVerified:
		m.counters.PaymentsVerified++
	case agent.EventPaymentRejected:
		m.counters.PaymentsRejected++
	case agent.EventRateLimited:
		m.counters.RateLimited++
	case agent.EventError:
		m.counters.Errors++
		if e.Err != nil {
			m.logs = appendCapped(m.logs, fmt.Sprintf("%d %s: %v", e.Status, e.Path, e.Err), maxLogLines)
		}
	}
}

func appendCapped(lines []string, line string, max int) []string {
	lines = append(lines, line)
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return lines
}

func (m Model) View() string {
	var b strings.Builder

	mode := PaidBadge.Render("PAID " + m.price)
	if m.freeMode {
		mode = FreeBadge.Render("FREE MODE")
	}
	b.WriteString(TitleStyle.Render("SLIPPAGE SENTINEL") + " " + mode + "\n\n")

	if m.started {
		b.WriteString(LabelStyle.Render("listening ") + ValueStyle.Render(m.addr) +
			LabelStyle.Render("  public ") + ValueStyle.Render(m.publicURL) +
			LabelStyle.Render("  uptime ") + ValueStyle.Render(m.now.Sub(m.startedAt).Truncate(time.Second).String()) + "\n")
	} else {
		b.WriteString(WarningValue.Render("starting...") + "\n")
	}

	b.WriteString(BoxStyle.Render(m.renderCounters()) + "\n")
	b.WriteString(BoxStyle.Render(m.renderFeed()) + "\n")

	if len(m.logs) > 0 && !m.hideLogs {
		b.WriteString(BoxStyle.Render(NegativeValue.Render(strings.Join(m.logs, "\n"))) + "\n")
	}
	if m.stopErr != nil {
		b.WriteString(NegativeValue.Render("server stopped: "+m.stopErr.Error()) + "\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderCounters() string {
	c := m.counters
	cell := func(label string, v uint64, style lipgloss.Style) string {
		return LabelStyle.Render(label+" ") + style.Render(fmt.Sprintf("%d", v))
	}
	errStyle := ValueStyle
	if c.Errors > 0 {
		errStyle = NegativeValue
	}
	return strings.Join([]string{
		cell("estimates", c.Estimates, ValueStyle),
		cell("paid", c.PaymentsVerified, PositiveValue),
		cell("rejected", c.PaymentsRejected, WarningValue),
		cell("limited", c.RateLimited, WarningValue),
		cell("errors", c.Errors, errStyle),
	}, "  │  ")
}

func (m Model) renderFeed() string {
	title := "LATEST ESTIMATES"
	if m.paused {
		title += " (paused)"
	}
	lines := []string{LabelStyle.Render(title)}
	if len(m.feed) == 0 {
		return strings.Join(append(lines, LabelStyle.Render("waiting for requests")), "\n")
	}

	lines = append(lines, LabelStyle.Render(fmt.Sprintf("%-8s  %-16s  %12s  %6s  %8s  %7s",
		"time", "pair", "amount", "chain", "slippage", "success")))
	for _, r := range m.feed {
		slip := PositiveValue.Render(fmt.Sprintf("%8s", r.recommended))
		if r.clamped {
			slip = WarningValue.Render(fmt.Sprintf("%8s", r.recommended))
		}
		lines = append(lines, fmt.Sprintf("%-8s  %-16s  %12s  %6d  %s  %7s",
			r.at.Format("15:04:05"), truncate(r.pair, 16), r.amount, r.chainID, slip, r.success))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
