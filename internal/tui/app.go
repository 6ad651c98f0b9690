package tui

import (
	"context"
	"fmt"
	"strings"

	"novatrade/internal/domain"
	"novatrade/internal/reconciler"
	"novatrade/internal/search"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	rangeOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	statStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// MarketGateway is the market-data surface the dashboard reads from.
type MarketGateway interface {
	Overview(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, domain.MarketStats, error)
	Search(ctx context.Context, query string) []domain.SearchResult
}

// WatchlistManager mutates and observes the signed-in user's watchlist.
type WatchlistManager interface {
	Add(ctx context.Context, userID int64, symbol string) error
	Remove(ctx context.Context, userID int64, symbol string) error
	Subscribe(ctx context.Context, userID int64) (<-chan []string, func(), error)
}

// Services bundles everything an SSH session's dashboard needs.
type Services struct {
	Market    MarketGateway
	Watchlist WatchlistManager
	UserID    int64
	Email     string
}

// Messages.
type dashMsg reconciler.Snapshot
type searchMsg search.Snapshot
type actionErrMsg struct{ err error }

// AppModel is the top-level bubbletea model for one dashboard session. The
// reconciler and search session run beside the model and push snapshots
// through a channel the Update loop drains.
type AppModel struct {
	svc     Services
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan tea.Msg

	rec     *reconciler.Reconciler
	session *search.Session

	dash      reconciler.Snapshot
	searchBox search.Snapshot
	input     textinput.Model
	searching bool
	cursor    int
	resultIdx int
	actionErr string

	width, height int
}

func NewAppModel(svc Services) *AppModel {
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tea.Msg, 64)

	rec := reconciler.New(svc.Market, func(s reconciler.Snapshot) {
		updates <- dashMsg(s)
	})
	session := search.NewSession(svc.Market, search.DefaultDebounce, func(s search.Snapshot) {
		updates <- searchMsg(s)
	})

	input := textinput.New()
	input.Placeholder = "search symbols"
	input.CharLimit = 32
	input.Width = 24

	return &AppModel{
		svc:     svc,
		ctx:     ctx,
		cancel:  cancel,
		updates: updates,
		rec:     rec,
		session: session,
		dash:    reconciler.Snapshot{Range: domain.DefaultRange},
		input:   input,
	}
}

// SetSize applies the PTY dimensions before the program starts.
func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AppModel) Init() tea.Cmd {
	go func() {
		if err := m.rec.Run(m.ctx, m.svc.Watchlist, m.svc.UserID); err != nil && m.ctx.Err() == nil {
			m.updates <- actionErrMsg{err: err}
		}
	}()
	return m.waitForUpdate()
}

func (m *AppModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case msg := <-m.updates:
			return msg
		}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashMsg:
		m.dash = reconciler.Snapshot(msg)
		if m.cursor >= len(m.dash.Symbols) {
			m.cursor = len(m.dash.Symbols) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, m.waitForUpdate()

	case searchMsg:
		m.searchBox = search.Snapshot(msg)
		if m.resultIdx >= len(m.searchBox.Results) {
			m.resultIdx = 0
		}
		return m, m.waitForUpdate()

	case actionErrMsg:
		m.actionErr = msg.err.Error()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q":
		m.cancel()
		return m, tea.Quit
	case "/":
		m.searching = true
		m.input.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.rec.Select(m.ctx, m.dash.Symbols[m.cursor])
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.dash.Symbols)-1 {
			m.cursor++
			m.rec.Select(m.ctx, m.dash.Symbols[m.cursor])
		}
		return m, nil
	case "x":
		if m.dash.Selected != "" {
			symbol := m.dash.Selected
			return m, func() tea.Msg {
				if err := m.svc.Watchlist.Remove(m.ctx, m.svc.UserID, symbol); err != nil {
					return actionErrMsg{err: err}
				}
				return nil
			}
		}
		return m, nil
	case "r":
		m.actionErr = ""
		m.rec.Refresh(m.ctx)
		return m, nil
	case "1", "2", "3", "4", "5":
		idx := int(msg.String()[0] - '1')
		if idx < len(domain.SupportedRanges) {
			m.rec.SetRange(m.ctx, domain.SupportedRanges[idx])
		}
		return m, nil
	}

	return m, nil
}

func (m *AppModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.resultIdx = 0
		m.session.Dismiss()
		return m, nil
	case "up":
		if m.resultIdx > 0 {
			m.resultIdx--
		}
		return m, nil
	case "down":
		if m.resultIdx < len(m.searchBox.Results)-1 {
			m.resultIdx++
		}
		return m, nil
	case "enter":
		if m.searchBox.State != search.Displaying || len(m.searchBox.Results) == 0 {
			return m, nil
		}
		symbol := m.searchBox.Results[m.resultIdx].Symbol
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.resultIdx = 0
		m.session.Select()
		return m, func() tea.Msg {
			if err := m.svc.Watchlist.Add(m.ctx, m.svc.UserID, symbol); err != nil {
				return actionErrMsg{err: err}
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetQuery(m.ctx, m.input.Value())
	return m, cmd
}

func (m *AppModel) View() string {
	sidebarWidth := 18
	chartWidth := m.width - sidebarWidth - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := m.height - 8
	if chartHeight < 4 {
		chartHeight = 4
	}

	header := titleStyle.Render("novatrade") + dimStyle.Render("  "+m.svc.Email)
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewSidebar(sidebarWidth),
		"  ",
		m.viewPanel(chartWidth, chartHeight),
	)
	footer := dimStyle.Render("/ search  1-5 range  j/k select  x remove  r refresh  q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", main, "", footer)
}

func (m *AppModel) viewSidebar(width int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("watchlist %d/%d", len(m.dash.Symbols), domain.MaxWatchlistSize)))
	b.WriteByte('\n')
	if len(m.dash.Symbols) == 0 {
		b.WriteString(dimStyle.Render("(empty)"))
	}
	for i, symbol := range m.dash.Symbols {
		b.WriteByte('\n')
		line := fmt.Sprintf("%-*s", width-2, symbol)
		if symbol == m.dash.Selected {
			b.WriteString(selectedStyle.Render(line))
		} else if i == m.cursor {
			b.WriteString(titleStyle.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	if m.searching {
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.viewSearchResults())
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m *AppModel) viewSearchResults() string {
	switch m.searchBox.State {
	case search.Debouncing, search.Querying:
		return dimStyle.Render("searching...")
	case search.Displaying:
		if len(m.searchBox.Results) == 0 {
			return dimStyle.Render("no matches")
		}
		var b strings.Builder
		for i, r := range m.searchBox.Results {
			if i > 0 {
				b.WriteByte('\n')
			}
			line := r.Symbol + " " + r.Description
			if i == m.resultIdx {
				b.WriteString(selectedStyle.Render(line))
			} else {
				b.WriteString(dimStyle.Render(line))
			}
		}
		return b.String()
	default:
		return ""
	}
}

func (m *AppModel) viewPanel(width, height int) string {
	var b strings.Builder

	if m.dash.Selected == "" {
		b.WriteString(dimStyle.Render("add a symbol with / to get started"))
		return b.String()
	}

	b.WriteString(titleStyle.Render(m.dash.Selected))
	b.WriteString("  ")
	b.WriteString(m.viewRangeTabs())
	b.WriteString("\n")
	b.WriteString(m.viewStats())
	b.WriteString("\n\n")

	switch m.dash.Phase {
	case reconciler.PhaseLoading:
		b.WriteString(dimStyle.Render("loading..."))
	case reconciler.PhaseFailed:
		b.WriteString(errStyle.Render(m.dash.ErrMsg))
	case reconciler.PhaseLoaded:
		b.WriteString(renderChart(m.dash.Series, width, height))
	}

	if m.actionErr != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(m.actionErr))
	}
	return b.String()
}

func (m *AppModel) viewRangeTabs() string {
	parts := make([]string, 0, len(domain.SupportedRanges))
	for i, r := range domain.SupportedRanges {
		label := fmt.Sprintf("%d:%s", i+1, r)
		if r == m.dash.Range {
			parts = append(parts, rangeOnStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m *AppModel) viewStats() string {
	return statStyle.Render(fmt.Sprintf(
		"mkt cap %s   vol %s   avg vol %s",
		domain.FormatMarketCap(m.dash.Stats.MarketCap),
		domain.FormatVolume(m.dash.Stats.Volume),
		domain.FormatVolume(m.dash.Stats.AvgVolume),
	))
}
