package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tetraminz/emotion_insights/internal/trends"
)

// Key bindings handled in handleKey.
const (
	KeyQuit    = "q"
	KeyCtrlC   = "ctrl+c"
	KeyDay     = "d"
	KeyWeek    = "w"
	KeyMonth   = "m"
	KeyRefresh = "r"
)

const loadTimeout = 30 * time.Second

// Loader runs one trend query.
type Loader interface {
	Trends(ctx context.Context, q trends.Query) ([]trends.Bucket, error)
}

// TrendsLoadedMsg carries the result of a load.
type TrendsLoadedMsg struct {
	Query   trends.Query
	Buckets []trends.Bucket
	Err     error
	At      time.Time
}

// RefreshTickMsg triggers a periodic reload.
type RefreshTickMsg struct{}

// Model is the trends viewer.
type Model struct {
	loader  Loader
	query   trends.Query
	refresh time.Duration

	buckets  []trends.Bucket
	loading  bool
	errText  string
	loadedAt time.Time

	width  int
	height int
}

// New creates a viewer for q. refresh 0 disables periodic reloads.
func New(loader Loader, q trends.Query, refresh time.Duration) Model {
	return Model{loader: loader, query: q, refresh: refresh, loading: true}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadCmd(m.loader, m.query)}
	if m.refresh > 0 {
		cmds = append(cmds, tickCmd(m.refresh))
	}
	return tea.Batch(cmds...)
}

func loadCmd(loader Loader, q trends.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		buckets, err := loader.Trends(ctx, q)
		return TrendsLoadedMsg{Query: q, Buckets: buckets, Err: err, At: time.Now()}
	}
}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return RefreshTickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TrendsLoadedMsg:
		// drop results for a granularity the user already switched away from
		if msg.Query.Granularity != m.query.Granularity {
			return m, nil
		}
		m.loading = false
		m.loadedAt = msg.At
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		m.errText = ""
		m.buckets = msg.Buckets
		return m, nil

	case RefreshTickMsg:
		if m.refresh <= 0 {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(loadCmd(m.loader, m.query), tickCmd(m.refresh))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit
	case KeyDay:
		return m.switchGranularity(trends.Day)
	case KeyWeek:
		return m.switchGranularity(trends.Week)
	case KeyMonth:
		return m.switchGranularity(trends.Month)
	case KeyRefresh:
		m.loading = true
		return m, loadCmd(m.loader, m.query)
	}
	return m, nil
}

func (m Model) switchGranularity(g trends.Granularity) (tea.Model, tea.Cmd) {
	if m.query.Granularity == g {
		return m, nil
	}
	m.query.Granularity = g
	m.loading = true
	return m, loadCmd(m.loader, m.query)
}

func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	width := m.width
	if width <= 0 {
		width = 80
	}
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", width)))

	if m.errText != "" {
		sections = append(sections, ErrorStyle.Render("Error: ")+m.errText)
	} else if m.loading && m.buckets == nil {
		sections = append(sections, DimStyle.Render("Loading..."))
	} else {
		sections = append(sections, RenderTable(m.buckets))
	}

	sections = append(sections, DividerStyle.Render(strings.Repeat("─", width)))
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("EMOTION TRENDS")
	info := fmt.Sprintf(" %s .. %s  group_by=%s  emotions=%s",
		m.query.Start.Format(trends.DateLayout),
		m.query.End.Format(trends.DateLayout),
		m.query.Granularity,
		m.query.Filter,
	)
	status := ""
	if m.loading {
		status = "  refreshing"
	} else if !m.loadedAt.IsZero() {
		status = "  updated " + m.loadedAt.Format("15:04:05")
	}
	return title + DimStyle.Render(info+status)
}

func (m Model) renderFooter() string {
	parts := []string{
		FooterKeyStyle.Render("d/w/m") + FooterDescStyle.Render(" Group"),
		FooterKeyStyle.Render("r") + FooterDescStyle.Render(" Refresh"),
		FooterKeyStyle.Render("q") + FooterDescStyle.Render(" Quit"),
	}
	return strings.Join(parts, "  ")
}

// Query returns the query currently on screen.
func (m Model) Query() trends.Query {
	return m.query
}
