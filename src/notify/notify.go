// Package notify delivers the build completion notification.
package notify

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gen2brain/beeep"

	"baobab/src/render"
)

// ErrTimeout is returned when the desktop notification does not complete in time.
var ErrTimeout = errors.New("desktop notification timed out")

// sendTimeout bounds how long a desktop notification may take.
const sendTimeout = 5 * time.Second

// Desktop shows a native desktop notification (notification daemon on Linux,
// Notification Center on macOS, toast on Windows).
type Desktop struct {
	send    func(title, body string) error
	timeout time.Duration
}

func NewDesktop() *Desktop {
	return &Desktop{
		send: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
		timeout: sendTimeout,
	}
}

// Notify implements render.Notifier. A notification daemon that hangs is
// abandoned after the timeout so the watch can exit.
func (d *Desktop) Notify(n render.Notification) error {
	done := make(chan error, 1)
	go func() {
		done <- d.send(n.Title, n.Body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("desktop notification failed: %w", err)
		}
		return nil
	case <-time.After(d.timeout):
		return ErrTimeout
	}
}

// Terminal rings the bell and prints the notification to w.
type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Notify implements render.Notifier.
func (t *Terminal) Notify(n render.Notification) error {
	if n.Body == "" {
		_, err := fmt.Fprintf(t.w, "\a%s\n", n.Title)
		return err
	}
	_, err := fmt.Fprintf(t.w, "\a%s\n%s\n", n.Title, n.Body)
	return err
}

// Fallback tries each notifier in turn and stops at the first success.
type Fallback []render.Notifier

// Notify implements render.Notifier. It returns all errors joined when every notifier fails.
func (f Fallback) Notify(n render.Notification) error {
	var errs []error
	for _, notifier := range f {
		err := notifier.Notify(n)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
