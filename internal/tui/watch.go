// Package tui provides the interactive rolling-window watch view: the
// SALT extraction re-run on a timer, summarized per trunk group.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cdrq/internal/cli"
	"cdrq/internal/clock"
	"cdrq/internal/config"
	"cdrq/internal/pipeline"
	"cdrq/internal/report"
	"cdrq/internal/salt"
)

// refreshMsg carries one completed extraction back into the model.
type refreshMsg struct {
	bucket salt.Bucket
	rows   []report.Row
	err    error
	at     time.Time
}

type tickMsg time.Time

// Watch is the root Bubble Tea model.
type Watch struct {
	cfg      config.Config
	clk      clock.Clock
	interval time.Duration

	spin        spinner.Model
	loading     bool
	bucket      salt.Bucket
	rows        []report.Row
	err         error
	lastRefresh time.Time
	width       int
}

// NewWatch builds the watch model. interval is the refresh period.
func NewWatch(cfg config.Config, clk clock.Clock, interval time.Duration) Watch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)
	return Watch{
		cfg:      cfg,
		clk:      clk,
		interval: interval,
		spin:     sp,
		loading:  true,
	}
}

func (w Watch) Init() tea.Cmd {
	return tea.Batch(w.spin.Tick, w.refresh())
}

func (w Watch) refresh() tea.Cmd {
	cfg, clk := w.cfg, w.clk
	return func() tea.Msg {
		bucket, rows, err := pipeline.SaltSummary(cfg, clk)
		return refreshMsg{bucket: bucket, rows: rows, err: err, at: clk.Now()}
	}
}

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return w, tea.Quit
		case "r":
			w.loading = true
			return w, tea.Batch(w.spin.Tick, w.refresh())
		}

	case tea.WindowSizeMsg:
		w.width = msg.Width

	case refreshMsg:
		w.loading = false
		w.bucket = msg.bucket
		w.rows = msg.rows
		w.err = msg.err
		w.lastRefresh = msg.at
		return w, tea.Tick(w.interval, func(t time.Time) tea.Msg { return tickMsg(t) })

	case tickMsg:
		w.loading = true
		return w, tea.Batch(w.spin.Tick, w.refresh())

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		if w.loading {
			return w, cmd
		}
	}
	return w, nil
}

func (w Watch) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText)
	muted := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	errStyle := lipgloss.NewStyle().Foreground(cli.ColorRed)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(title.Render(fmt.Sprintf("  %s  rolling window", w.cfg.HostLabel())))
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("  bucket %s", w.bucket)))
	if !w.lastRefresh.IsZero() {
		b.WriteString(muted.Render(fmt.Sprintf("  ·  refreshed %s", w.lastRefresh.Format("15:04:05"))))
	}
	b.WriteString("\n\n")

	switch {
	case w.loading && len(w.rows) == 0:
		b.WriteString("  " + w.spin.View() + " extracting...\n")
	case w.err != nil:
		b.WriteString(errStyle.Render("  " + w.err.Error()))
		b.WriteString("\n")
	case len(w.rows) == 0:
		b.WriteString(muted.Render("  no records in the current bucket"))
		b.WriteString("\n")
	default:
		rows := make([][]string, 0, len(w.rows))
		for _, r := range w.rows {
			parts := strings.SplitN(r.Key, " ", 3)
			for len(parts) < 3 {
				parts = append(parts, "")
			}
			rows = append(rows, []string{parts[1], parts[0], parts[2], strconv.Itoa(r.Count)})
		}
		b.WriteString(cli.RenderTable(cli.Table{
			Headers: []string{"Trunk group", "Type", "Bucket", "Records"},
			Rows:    rows,
		}))
	}

	b.WriteString("\n")
	b.WriteString(muted.Render("  r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the watch program.
func Run(cfg config.Config, clk clock.Clock, interval time.Duration) error {
	p := tea.NewProgram(NewWatch(cfg, clk, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
