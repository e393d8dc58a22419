// Package tui provides the terminal progress display for a watched build.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"baobab/src/render"
)

const (
	padding     = 2
	maxBarWidth = 80
	minBarWidth = 10
)

// SnapshotMsg carries the descriptor of the latest snapshot.
type SnapshotMsg render.Descriptor

// DoneMsg ends the program once the watch is over. Err is nil when the build finished.
type DoneMsg struct {
	Err error
}

// WatchModel is the Bubble Tea model for a single watched build.
type WatchModel struct {
	buildURL  string
	desc      render.Descriptor
	bar       progress.Model
	spinner   spinner.Model
	styles    *StyleConfig
	width     int
	snapshots int
	done      bool
	err       error
	userQuit  bool
}

// NewWatchModel starts with an empty green bar until the first snapshot arrives.
func NewWatchModel(buildURL string) WatchModel {
	styles := DefaultStyles()
	initial := render.Initial()

	bar := progress.New(
		progress.WithSolidFill(string(initial.Color.Terminal())),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(styles.BorderColor)
	bar.Width = maxBarWidth / 2

	return WatchModel{
		buildURL: buildURL,
		desc:     initial,
		bar:      bar,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle())),
		styles:   styles,
	}
}

// Init starts the spinner.
func (m WatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles snapshots, window resizes and quit keys.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-padding*2-len(" 100%")-2, minBarWidth), maxBarWidth)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.userQuit = true
			return m, tea.Quit
		}

	case SnapshotMsg:
		m.desc = render.Descriptor(msg)
		m.bar.FullColor = string(m.desc.Color.Terminal())
		m.snapshots++

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the header, the bar and the stage label.
func (m WatchModel) View() string {
	pad := strings.Repeat(" ", padding)

	indicator := m.spinner.View()
	if m.done {
		indicator = m.statusIcon()
	}

	header := m.styles.TitleStyle().Render("baobab") + m.styles.HelpStyle().Render(m.truncate(m.buildURL, 8))
	bar := fmt.Sprintf("%s %s %3d%%", indicator, m.bar.ViewAs(float64(m.desc.Percentage)/100), m.desc.Percentage)
	label := m.styles.LabelStyle().Render(m.truncate(m.desc.Label, 0))

	lines := []string{"", header, "", pad + bar, pad + label, ""}

	switch {
	case m.done && m.err != nil:
		lines = append(lines, pad+m.styles.ErrorStyle().Render(m.truncate(m.err.Error(), 0)), "")
	case !m.done:
		lines = append(lines, m.styles.HelpStyle().Render("q: stop watching"), "")
	}

	return strings.Join(lines, "\n")
}

func (m WatchModel) statusIcon() string {
	style := lipgloss.NewStyle().Foreground(m.desc.Color.Terminal())
	switch {
	case m.err != nil:
		return m.styles.ErrorStyle().Render("!")
	case m.desc.Color == render.Red:
		return style.Render("✗")
	case m.desc.Color == render.Green:
		return style.Render("✓")
	default:
		return style.Render("?")
	}
}

// truncate fits s on one line of the current width, less reserved columns.
func (m WatchModel) truncate(s string, reserved int) string {
	if m.width == 0 {
		return s
	}
	width := m.width - padding*2 - reserved
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// Snapshots reports how many snapshots the model has received.
func (m WatchModel) Snapshots() int {
	return m.snapshots
}

// Descriptor returns the descriptor currently on screen.
func (m WatchModel) Descriptor() render.Descriptor {
	return m.desc
}

// UserQuit reports whether the user stopped watching before the build finished.
func (m WatchModel) UserQuit() bool {
	return m.userQuit
}
