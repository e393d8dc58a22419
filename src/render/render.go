// Package render maps build snapshots to progress descriptors and drives the
// display and notification sinks.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"baobab/src/logger"
	"baobab/src/teamcity"
)

// ErrStreamEnded is returned by Run when the snapshot stream closes before a
// finished snapshot arrives.
var ErrStreamEnded = errors.New("snapshot stream ended before the build finished")

// Color is the progress bar color for a build status.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Gray  Color = "gray"
)

// palette maps each Color to the terminal color used to draw it.
var palette = map[Color]lipgloss.Color{
	Green: lipgloss.Color("#34A853"),
	Red:   lipgloss.Color("#EA4335"),
	Gray:  lipgloss.Color("#9AA0A6"),
}

// Terminal returns the lipgloss color for c. Unknown colors draw as gray.
func (c Color) Terminal() lipgloss.Color {
	if tc, ok := palette[c]; ok {
		return tc
	}
	return palette[Gray]
}

// Descriptor is what a display needs to draw one snapshot.
type Descriptor struct {
	Percentage int
	Label      string
	Color      Color
}

// Notification is the one-shot completion message.
type Notification struct {
	Title string
	Body  string
}

// Display draws descriptors. Implementations must tolerate repeated calls with the same value.
type Display interface {
	Render(desc Descriptor) error
}

// Notifier delivers the completion notification.
type Notifier interface {
	Notify(n Notification) error
}

// Initial is the descriptor shown before the first snapshot arrives.
func Initial() Descriptor {
	return Descriptor{Percentage: 0, Color: Green}
}

// Describe maps a snapshot to its descriptor. It is total over all statuses.
func Describe(build teamcity.Build) Descriptor {
	desc := Descriptor{
		Percentage: 100,
		Color:      ColorFor(build.Status),
	}

	// A missing percentage draws a full bar.
	if build.PercentageComplete != nil {
		desc.Percentage = clamp(*build.PercentageComplete, 0, 100)
	}

	if build.RunningInfo != nil {
		desc.Label = build.RunningInfo.CurrentStageText
	} else {
		desc.Label = fmt.Sprintf("build is %s (%s)", build.Status, build.State)
	}

	return desc
}

// ColorFor returns green for SUCCESS, red for FAILURE and gray for anything else.
func ColorFor(status string) Color {
	switch status {
	case teamcity.StatusSuccess:
		return Green
	case teamcity.StatusFailure:
		return Red
	default:
		return Gray
	}
}

// NotificationFor builds the completion notification for a finished build.
func NotificationFor(build teamcity.Build) Notification {
	var title string
	switch build.Status {
	case teamcity.StatusSuccess:
		title = "Build finished successfully :)"
	case teamcity.StatusFailure:
		title = "Build failed :("
	default:
		title = "Build finished?"
	}
	return Notification{Title: title, Body: build.WebURL}
}

// Renderer consumes snapshots in order and forwards them to the sinks.
type Renderer struct {
	display  Display
	notifier Notifier
	log      logger.Logger
}

// NewRenderer creates a renderer. A nil notifier disables notifications.
func NewRenderer(display Display, notifier Notifier, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Renderer{
		display:  display,
		notifier: notifier,
		log:      log,
	}
}

// Run renders every snapshot received on snapshots. When a finished snapshot
// arrives it sends exactly one notification and returns nil. Sink errors are
// logged and never returned. Run returns ErrStreamEnded if the channel closes
// first, or ctx.Err() on cancellation.
func (r *Renderer) Run(ctx context.Context, snapshots <-chan teamcity.Build) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case build, ok := <-snapshots:
			if !ok {
				return ErrStreamEnded
			}

			if err := r.display.Render(Describe(build)); err != nil {
				r.log.Error("failed to render progress: %v", err)
			}

			if build.Finished() {
				r.notify(build)
				return nil
			}
		}
	}
}

func (r *Renderer) notify(build teamcity.Build) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(NotificationFor(build)); err != nil {
		r.log.Error("failed to send notification: %v", err)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
