// Package tui provides a Bubble Tea terminal user interface for the
// manifest downloader.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/download"
	"github.com/handiism/manifest-downloader/internal/manifest"
	"github.com/handiism/manifest-downloader/internal/model"
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

	entryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	log       *slog.Logger
	err       error

	// configPath, if set, receives the settings whenever an option changes.
	configPath string

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	entries    []*model.Entry
	totalFiles int
	run        *runState
	view       snapshot
	summary    download.Summary

	width  int
	height int
}

// NewModel creates a new TUI model for settings. Option changes are
// saved to configPath unless it is empty.
func NewModel(settings *config.Settings, log *slog.Logger, configPath string) Model {
	ti := textinput.New()
	ti.Placeholder = "manifest.xml [more.xml ...]"
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:   settings,
		log:        log,
		configPath: configPath,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// LoadedMsg is sent when the manifests have been parsed.
	LoadedMsg struct {
		Entries []*model.Entry
		Err     error
	}

	// DownloadDoneMsg is sent when the run completes.
	DownloadDoneMsg struct {
		Summary download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
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
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateLoading {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateLoading
				return m, tea.Batch(m.loadManifests(), m.spinner.Tick)
			}

		case "tab":
			if m.state == StateInput {
				m.settings.Verbose = !m.settings.Verbose
				m.saveSettings()
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case LoadedMsg:
		if m.state != StateLoading {
			return m, nil
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.entries = msg.Entries
		m.totalFiles = 0
		for _, entry := range msg.Entries {
			m.totalFiles += len(entry.Files)
		}
		m.run = &runState{}
		m.state = StateDownloading
		cmds = append(cmds, m.startDownload(), m.tickProgress())

	case DownloadDoneMsg:
		m.summary = msg.Summary
		if m.run != nil {
			m.view = m.run.snapshot()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.run != nil && m.state == StateDownloading {
			m.view = m.run.snapshot()
			cmds = append(cmds, m.progress.SetPercent(m.filePercent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) saveSettings() {
	if m.configPath == "" {
		return
	}
	if err := m.settings.Save(m.configPath); err != nil {
		m.log.Warn("save settings", "path", m.configPath, "err", err)
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.err = nil
	m.entries = nil
	m.totalFiles = 0
	m.run = nil
	m.view = snapshot{}
	m.summary = download.Summary{}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

func (m Model) filePercent() float64 {
	if m.totalFiles == 0 {
		return 0
	}
	return float64(m.view.done) / float64(m.totalFiles)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Manifest Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetch and verify files listed in XML manifests"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter manifest paths:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.settings.Verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Show every file (tab)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Root directory: %s", m.settings.RootDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Reading manifests..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if len(m.entries) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Found %d entr%s:", len(m.entries), plural(len(m.entries), "y", "ies"))))
		b.WriteString("\n")
		for _, entry := range m.entries {
			b.WriteString(entryStyle.Render(fmt.Sprintf("  * %s (%d files)", entry.Name, len(entry.Files))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.progress.ViewAs(m.filePercent()))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Files: %d/%d", m.view.done, m.totalFiles)))
	b.WriteString("\n")

	if op := operationLine(m.view); op != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(op))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

// operationLine describes the file operation in progress.
func operationLine(s snapshot) string {
	label := strings.TrimLeft(s.label, " -")
	if label == "" {
		return ""
	}
	if !s.total.Known() || s.total.Bytes() == 0 {
		return fmt.Sprintf("%s: %s", label, humanize.Bytes(uint64(s.current)))
	}
	return fmt.Sprintf("%s: %d%% of %s", label, s.current*100/s.total.Bytes(), s.total)
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Run complete\n\n"+
			"Entries: %d\n"+
			"Already downloaded: %d\n"+
			"Fetched: %d\n"+
			"Checksum mismatch: %d\n"+
			"Size: %s",
		m.summary.Entries,
		m.summary.Skipped,
		m.summary.Fetched,
		m.summary.Failed,
		humanize.Bytes(uint64(m.summary.Bytes)),
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.view.logs {
		if log.Level == download.LevelVerbose && !m.settings.Verbose {
			continue
		}
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
	case StateInput:
		return "enter: start • tab: verbose • esc: quit"
	case StateLoading, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// loadManifests parses the paths typed by the user.
func (m Model) loadManifests() tea.Cmd {
	ctx := m.ctx
	paths := strings.Fields(m.textInput.Value())
	parser := manifest.NewParser(m.settings.RootDir, m.log)
	workers := m.settings.ManifestWorkers

	return func() tea.Msg {
		entries, err := manifest.LoadAll(ctx, parser, paths, workers)
		return LoadedMsg{Entries: entries, Err: err}
	}
}

// startDownload runs the pipeline in the background.
func (m Model) startDownload() tea.Cmd {
	ctx := m.ctx
	entries := m.entries
	state := m.run
	manager := download.NewManager(m.settings, io.Discard, state.record,
		download.WithTracker(state),
		download.WithLogger(m.log),
	)

	return func() tea.Msg {
		err := manager.Run(ctx, entries)
		return DownloadDoneMsg{Summary: manager.Summary(), Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, log *slog.Logger, configPath string) error {
	p := tea.NewProgram(NewModel(settings, log, configPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
