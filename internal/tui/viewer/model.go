// ============================================================================
// calcparse - Calc Language Front End
// ============================================================================
//
// Package:     viewer
// Description: Bubbletea model browsing recorded compile runs
// Author:      msto63
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	"github.com/msto63/calcparse/internal/store"
	"github.com/msto63/calcparse/pkg/core/version"
)

// Loader fetches the runs to display, newest first
type Loader func(ctx context.Context) ([]*store.RunEntry, error)

// StoreLoader loads up to limit runs from a run store
func StoreLoader(s *store.SQLiteRunStore, limit int) Loader {
	return func(ctx context.Context) ([]*store.RunEntry, error) {
		return s.Query(ctx, store.RunFilter{Limit: limit})
	}
}

// StaticLoader always returns the given runs
func StaticLoader(entries ...*store.RunEntry) Loader {
	return func(context.Context) ([]*store.RunEntry, error) {
		return entries, nil
	}
}

// StatusFilter tracks which run statuses are shown
type StatusFilter struct {
	OK      bool
	Failed  bool
	Aborted bool
}

func (f StatusFilter) allows(status calc.Status) bool {
	switch status {
	case calc.StatusOK:
		return f.OK
	case calc.StatusFailed:
		return f.Failed
	case calc.StatusAborted:
		return f.Aborted
	}
	return true
}

// Config holds viewer configuration
type Config struct {
	Loader Loader
	// Refresh reloads runs periodically; zero disables polling
	Refresh time.Duration
}

// Model is the Bubbletea model of the run viewer
type Model struct {
	// State
	width    int
	height   int
	ready    bool
	loading  bool
	paused   bool
	err      error
	selected int

	// Components
	viewport viewport.Model
	spinner  spinner.Model

	// Runs
	allRuns      []*store.RunEntry
	filteredRuns []*store.RunEntry
	statusFilter StatusFilter

	loader  Loader
	refresh time.Duration
}

// New creates a viewer model
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	loader := cfg.Loader
	if loader == nil {
		loader = StaticLoader()
	}

	return Model{
		spinner:      sp,
		loading:      true,
		statusFilter: StatusFilter{OK: true, Failed: true, Aborted: true},
		loader:       loader,
		refresh:      cfg.Refresh,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadRuns}
	if m.refresh > 0 {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Title + filter bar
		footerHeight := 4 // Status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case runsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.allRuns = msg.entries
			m.applyFilters()
			m.updateViewportContent()
		}

	case tickMsg:
		if !m.paused {
			cmds = append(cmds, m.loadRuns)
		}
		cmds = append(cmds, m.tick())
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit

		// Status filters
		case "1":
			m.statusFilter.OK = !m.statusFilter.OK
			m.refilter()
		case "2":
			m.statusFilter.Failed = !m.statusFilter.Failed
			m.refilter()
		case "3":
			m.statusFilter.Aborted = !m.statusFilter.Aborted
			m.refilter()
		case "0":
			m.statusFilter = StatusFilter{OK: true, Failed: true, Aborted: true}
			m.refilter()

		// Run selection
		case "n", "l":
			m.selectRun(m.selected + 1)
		case "N", "h":
			m.selectRun(m.selected - 1)

		case "p", " ":
			m.paused = !m.paused
		case "r":
			m.loading = true
			return m, m.loadRuns
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		}
		return m, nil

	case tea.KeyRight, tea.KeyTab:
		m.selectRun(m.selected + 1)
	case tea.KeyLeft, tea.KeyShiftTab:
		m.selectRun(m.selected - 1)
	case tea.KeyPgUp:
		m.viewport.ViewUp()
	case tea.KeyPgDown:
		m.viewport.ViewDown()
	case tea.KeyUp:
		m.viewport.LineUp(1)
	case tea.KeyDown:
		m.viewport.LineDown(1)
	}

	return m, nil
}

// Selected returns the run shown in the detail pane, or nil
func (m Model) Selected() *store.RunEntry {
	if m.selected < 0 || m.selected >= len(m.filteredRuns) {
		return nil
	}
	return m.filteredRuns[m.selected]
}

func (m *Model) selectRun(i int) {
	if len(m.filteredRuns) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m.filteredRuns) {
		i = len(m.filteredRuns) - 1
	}
	if i != m.selected {
		m.selected = i
		m.updateViewportContent()
		m.viewport.GotoTop()
	}
}

func (m *Model) refilter() {
	m.applyFilters()
	m.updateViewportContent()
	m.viewport.GotoTop()
}

// applyFilters filters runs by status, keeping the selection when possible
func (m *Model) applyFilters() {
	var current string
	if sel := m.Selected(); sel != nil {
		current = sel.ID
	}

	m.filteredRuns = make([]*store.RunEntry, 0, len(m.allRuns))
	m.selected = 0
	for _, run := range m.allRuns {
		if !m.statusFilter.allows(run.Status) {
			continue
		}
		if run.ID == current {
			m.selected = len(m.filteredRuns)
		}
		m.filteredRuns = append(m.filteredRuns, run)
	}
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading runs..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(DetailPanelStyle.Width(m.width - 2).Height(m.viewport.Height + 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	header := LogoStyle.Render(Logo)
	if m.paused {
		header += "  " + StatusPausedStyle.Render("PAUSED")
	}
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderFilterBar() string {
	filters := []string{
		"1:" + RenderFilterStatus("OK", m.statusFilter.OK),
		"2:" + RenderFilterStatus("FAILED", m.statusFilter.Failed),
		"3:" + RenderFilterStatus("ABORTED", m.statusFilter.Aborted),
	}
	position := 0
	if len(m.filteredRuns) > 0 {
		position = m.selected + 1
	}
	count := HelpDescStyle.Render(fmt.Sprintf("[run %d/%d, %d total]", position, len(m.filteredRuns), len(m.allRuns)))
	return FilterBarStyle.Width(m.width - 2).Render(strings.Join(filters, "  ") + "  " + count)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.loading:
		left = m.spinner.View() + " Loading..."
	case m.err != nil:
		left = StatusAbortedStyle.Render("Error: " + m.err.Error())
	default:
		if run := m.Selected(); run != nil {
			left = RenderStatusBadge(run.Status) + " " + HelpDescStyle.Render(shortID(run.ID))
		}
	}
	right := HelpDescStyle.Render("v" + version.Version)

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 2 {
		padding = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("1-3", "Status"),
		RenderKeyHint("0", "All"),
		RenderKeyHint("←/→", "Run"),
		RenderKeyHint("p", "Pause"),
		RenderKeyHint("r", "Refresh"),
		RenderKeyHint("q", "Quit"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// updateViewportContent shows the selected run
func (m *Model) updateViewportContent() {
	run := m.Selected()
	if run == nil {
		m.viewport.SetContent(HelpDescStyle.Render("No runs recorded"))
		return
	}
	m.viewport.SetContent(RenderRun(run))
}

// RenderRun formats one run: summary, numbered source, diagnostics and tree
func RenderRun(run *store.RunEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s  %s  %d tokens  %s\n\n",
		RenderStatusBadge(run.Status),
		shortID(run.ID),
		run.Timestamp.Format("2006-01-02 15:04:05"),
		run.Tokens,
		run.Duration.Round(time.Microsecond),
	)

	b.WriteString(SectionStyle.Render("Source") + "\n")
	lines := strings.Split(strings.TrimRight(run.Source, "\n"), "\n")
	for i, line := range lines {
		b.WriteString(LineNumberStyle.Render(fmt.Sprintf("%4d ", i+1)) + SourceStyle.Render(line) + "\n")
	}

	if len(run.Diagnostics) > 0 {
		b.WriteString("\n" + SectionStyle.Render("Diagnostics") + "\n")
		for _, d := range run.Diagnostics {
			b.WriteString(RenderDiagnostic(d) + "\n")
		}
	}

	b.WriteString("\n" + SectionStyle.Render("Tree") + "\n")
	switch {
	case run.Error != "":
		b.WriteString(StatusAbortedStyle.Render(run.Error) + "\n")
	case run.Status == calc.StatusFailed:
		b.WriteString(StatusFailedStyle.Render(calc.FailureMessage) + "\n")
	default:
		root, err := mdwast.ParseCompact(run.Tree)
		if err != nil {
			b.WriteString(StatusAbortedStyle.Render("unreadable tree: "+err.Error()) + "\n")
			break
		}
		b.WriteString(mdwast.Printer{Style: mdwast.StyleIndented, Decorate: decorateLabel}.Sprint(root))
	}

	return b.String()
}

// loadRuns loads runs through the configured loader
func (m Model) loadRuns() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := m.loader(ctx)
	return runsLoadedMsg{entries: entries, err: err}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Run starts the viewer TUI
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
