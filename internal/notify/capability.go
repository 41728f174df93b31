// ABOUTME: OS notification capability: permission state, emit, and click handles.
// ABOUTME: Injected into the dispatcher so platforms and tests can supply their own.

package notify

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied    = errors.New("notification permission not granted")
	ErrHistoryItemNotFound = errors.New("history item not found")
)

type Permission int

const (
	PermissionUnavailable Permission = iota
	PermissionDefault
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionDefault:
		return "default"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unavailable"
	}
}

// Notification is what an OS notifier shows.
type Notification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
}

// Handle is a shown notification. Clicked is closed when the user clicks it.
type Handle interface {
	Clicked() <-chan struct{}
	Close() error
}

type OSNotifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Emit(n Notification) (Handle, error)
}

// Focuser brings the application to the foreground.
type Focuser interface {
	Focus() error
}

type FocusFunc func() error

func (f FocusFunc) Focus() error { return f() }
