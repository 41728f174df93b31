// ABOUTME: Terminal-backed OS notifier for sam watch.
// ABOUTME: Renders notifications as colored lines when attached to a TTY.

package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// TerminalNotifier prints notifications to a terminal. It is unavailable when
// the writer is not a TTY and starts in the default state otherwise.
type TerminalNotifier struct {
	mu   sync.Mutex
	w    io.Writer
	perm Permission
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	perm := PermissionUnavailable
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		perm = PermissionDefault
	}
	return &TerminalNotifier{w: w, perm: perm}
}

func (t *TerminalNotifier) Permission() Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perm
}

// RequestPermission grants on a TTY; there is nobody to ask otherwise.
func (t *TerminalNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return t.perm, err
	}
	if t.perm == PermissionDefault {
		t.perm = PermissionGranted
	}
	return t.perm, nil
}

func (t *TerminalNotifier) Emit(n Notification) (Handle, error) {
	if t.Permission() != PermissionGranted {
		return nil, ErrPermissionDenied
	}

	bell := color.New(color.FgYellow, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "%s %s\n", bell("⏰ "+n.Title), n.Body); err != nil {
		return nil, err
	}
	if n.Tag != "" {
		fmt.Fprintf(t.w, "   %s\n", faint(n.Tag))
	}
	return newHandle(), nil
}

// handle is a notification that can be clicked once and closed once.
type handle struct {
	clicked   chan struct{}
	clickOnce sync.Once
	closeOnce sync.Once
	closed    chan struct{}
}

func newHandle() *handle {
	return &handle{clicked: make(chan struct{}), closed: make(chan struct{})}
}

func (h *handle) Clicked() <-chan struct{} { return h.clicked }

// Click simulates the user clicking the notification.
func (h *handle) Click() {
	h.clickOnce.Do(func() { close(h.clicked) })
}

func (h *handle) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

func (h *handle) isClosed() bool {
	select {
	case <-h.closed:
		return true
	default:
		return false
	}
}
