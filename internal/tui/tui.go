// Package tui provides a Bubble Tea terminal user interface for mathdl.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/math-downloader/internal/config"
	"github.com/handiism/math-downloader/internal/download"
	"github.com/handiism/math-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of events kept in the log pane.
const maxLogs = 12

// State represents the current UI state.
type State int

const (
	StateSetup State = iota
	StateRunning
	StateDone
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

type sourceOption struct {
	source   model.Source
	selected bool
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	sources  []sourceOption
	cursor   int // len(sources) focuses the output directory input
	output   textinput.Model
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	manager  *download.Manager

	handle     *download.Handle
	events     chan download.ProgressEvent
	cancelling bool

	logs      []LogEntry
	processed int
	total     int
	summary   *model.Summary
	err       error

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. The sources selected in settings start
// checked and the output directory input holds settings.OutputDir.
func NewModel(settings *config.Settings, manager *download.Manager) Model {
	ti := textinput.New()
	ti.Placeholder = config.DefaultOutputDir
	ti.SetValue(settings.OutputDir)
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	selected := settings.ParsedSources()
	var sources []sourceOption
	for _, src := range model.AllSources() {
		sources = append(sources, sourceOption{source: src, selected: contains(selected, src)})
	}

	return Model{
		state:    StateSetup,
		sources:  sources,
		output:   ti,
		spinner:  sp,
		progress: prog,
		settings: settings,
		manager:  manager,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Message types
type (
	// ProgressMsg carries one event of the running download.
	ProgressMsg struct {
		Event download.ProgressEvent
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case spinner.TickMsg:
		if m.state == StateRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case ProgressMsg:
		cmds = append(cmds, m.handleEvent(msg.Event))

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateSetup && m.output.Focused() {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey reports handled=false for keys that belong to the output
// directory input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		if m.state == StateRunning {
			m.manager.Cancel(m.handle)
		}
		return m, tea.Quit, true
	}

	switch m.state {
	case StateSetup:
		onInput := m.output.Focused()
		switch key {
		case "up", "shift+tab":
			m.moveCursor(-1)
			return m, nil, true
		case "down", "tab":
			m.moveCursor(1)
			return m, nil, true
		case "enter":
			next, cmd := m.start()
			return next, cmd, true
		case "esc":
			return m, tea.Quit, true
		}
		if onInput {
			return m, nil, false
		}
		switch key {
		case "k":
			m.moveCursor(-1)
		case "j":
			m.moveCursor(1)
		case " ", "space", "x":
			m.sources[m.cursor].selected = !m.sources[m.cursor].selected
			m.err = nil
		case "v":
			m.verbose = !m.verbose
		case "q":
			return m, tea.Quit, true
		}
		return m, nil, true

	case StateRunning:
		if key == "esc" && !m.cancelling {
			m.cancelling = true
			m.manager.Cancel(m.handle)
			m.addLog("Cancelling after the current document...", download.LevelWarning)
		}
		return m, nil, true

	case StateDone:
		switch key {
		case "q", "esc":
			return m, tea.Quit, true
		case "r":
			m.reset()
		}
		return m, nil, true
	}
	return m, nil, true
}

func (m *Model) moveCursor(delta int) {
	n := len(m.sources) + 1
	m.cursor = (m.cursor + delta + n) % n
	if m.cursor == len(m.sources) {
		m.output.Focus()
	} else {
		m.output.Blur()
	}
}

// start validates the selection and starts a run.
func (m Model) start() (Model, tea.Cmd) {
	var selected []model.Source
	for _, opt := range m.sources {
		if opt.selected {
			selected = append(selected, opt.source)
		}
	}
	cfg := model.NewRunConfiguration(selected, strings.TrimSpace(m.output.Value()))
	if err := cfg.Validate(); err != nil {
		m.err = err
		return m, nil
	}

	events := make(chan download.ProgressEvent, 64)
	h, err := m.manager.Start(cfg, func(ev download.ProgressEvent) { events <- ev }, nil)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.settings.OutputDir = cfg.OutputDir
	m.state = StateRunning
	m.handle = h
	m.events = events
	m.err = nil
	m.output.Blur()
	return m, tea.Batch(waitForEvent(events), m.spinner.Tick)
}

// handleEvent applies one progress event and returns the follow-up command.
func (m *Model) handleEvent(ev download.ProgressEvent) tea.Cmd {
	if m.state != StateRunning {
		return nil
	}

	m.processed = ev.Processed
	m.total = ev.Total
	if ev.Level != download.LevelVerbose || m.verbose {
		m.addLog(ev.Message, ev.Level)
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}

	if ev.Kind == download.KindSummary {
		m.state = StateDone
		m.summary = ev.Summary
		if ev.Summary != nil {
			m.err = ev.Summary.Err
		}
		m.cancelling = false
		return m.progress.SetPercent(percent)
	}
	return tea.Batch(m.progress.SetPercent(percent), waitForEvent(m.events))
}

func (m *Model) addLog(msg string, level download.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: msg, Level: level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// reset returns to the setup screen keeping the selection.
func (m *Model) reset() {
	m.state = StateSetup
	m.handle = nil
	m.events = nil
	m.logs = nil
	m.processed = 0
	m.total = 0
	m.summary = nil
	m.err = nil
	m.cursor = 0
	m.output.Blur()
	m.progress.SetPercent(0)
}

// waitForEvent delivers the next event of the run as a ProgressMsg.
func waitForEvent(events <-chan download.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: ev}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Math Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Textbooks and lecture notes from arXiv, MIT OpenCourseWare and Project Gutenberg"))
	b.WriteString("\n\n")

	switch m.state {
	case StateSetup:
		b.WriteString(m.viewSetup())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StateDone:
		b.WriteString(m.viewDone())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewSetup() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Sources:"))
	b.WriteString("\n")
	for i, opt := range m.sources {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if opt.selected {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, opt.source.DisplayName())
	}
	b.WriteString("\n")

	cursor := "  "
	if m.cursor == len(m.sources) {
		cursor = cursorStyle.Render("> ")
	}
	b.WriteString(subtitleStyle.Render("Output directory:"))
	b.WriteString("\n")
	b.WriteString(cursor + m.output.View())
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}
	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Verbose output (v)\n", verboseCheck)

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + model.Describe(m.err)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	status := "Downloading..."
	if m.cancelling {
		status = "Cancelling..."
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(m.progress.View())
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Documents: %d/%d", m.processed, m.total)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDone() string {
	var b strings.Builder

	if m.summary != nil {
		s := m.summary
		style := successStyle
		switch {
		case s.State == model.StateFailed:
			style = errorStyle
		case s.State == model.StateCancelled || s.HasFailures():
			style = warningStyle
		}
		body := fmt.Sprintf("Run %s\n\nDownloaded: %d\nSkipped: %d\nFailed: %d\nNot attempted: %d\n\nSaved to %s",
			s.State, s.Success, s.Skipped, s.Failed, s.NotAttempted, m.settings.OutputDir)
		b.WriteString(boxStyle.Render(style.Render(body)))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + model.Describe(m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateSetup:
		return "↑/↓: move • space: toggle source • enter: start • v: verbose • esc: quit"
	case StateRunning:
		return "esc: cancel • ctrl+c: quit"
	case StateDone:
		return "r: new run • q: quit"
	}
	return ""
}

func contains(sources []model.Source, src model.Source) bool {
	for _, s := range sources {
		if s == src {
			return true
		}
	}
	return false
}

// Run starts the TUI application and blocks until the user quits. A run
// still in progress is cancelled and awaited before Run returns.
func Run(settings *config.Settings, manager *download.Manager) error {
	p := tea.NewProgram(NewModel(settings, manager), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(Model); ok && m.state == StateRunning && m.handle != nil {
		manager.Cancel(m.handle)
		// Drain so the worker is never blocked on a full channel.
		go func() {
			for range m.events {
			}
		}()
		m.handle.Wait()
	}
	return err
}
