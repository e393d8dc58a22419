package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	barWidth     = 30
	defaultWidth = 80
)

// LineDisplay writes one line per snapshot. Used with --plain and when stdout is not a terminal.
type LineDisplay struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	last  string
}

// NewLineDisplay writes to w, truncating labels so each line fits in width columns.
// A non-positive width means 80.
func NewLineDisplay(w io.Writer, width int) *LineDisplay {
	if width <= 0 {
		width = defaultWidth
	}
	return &LineDisplay{w: w, width: width}
}

// Render prints desc unless it is identical to the previous line.
func (d *LineDisplay) Render(desc Descriptor) error {
	line := d.Format(desc)

	d.mu.Lock()
	defer d.mu.Unlock()

	if line == d.last {
		return nil
	}
	d.last = line

	_, err := fmt.Fprintln(d.w, line)
	return err
}

// Format renders desc as "[#####-----] 42% label".
func (d *LineDisplay) Format(desc Descriptor) string {
	pct := clamp(desc.Percentage, 0, 100)
	filled := pct * barWidth / 100

	bar := lipgloss.NewStyle().
		Foreground(desc.Color.Terminal()).
		Render(strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled))

	prefix := fmt.Sprintf("[%s] %3d%% ", bar, pct)
	// Color codes take no columns.
	used := barWidth + len(fmt.Sprintf("[] %3d%% ", pct))

	return prefix + truncate(desc.Label, d.width-used)
}

// truncate shortens s to at most width display columns, marking the cut with "...".
func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width > 3 {
		return runewidth.Truncate(s, width, "...")
	}
	return runewidth.Truncate(s, width, "")
}
