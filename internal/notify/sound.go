package notify

import (
	"io"
)

// Chime plays the short audible cue for a fired reminder.
type Chime interface {
	Play() error
}

type ChimeFunc func() error

func (f ChimeFunc) Play() error { return f() }

// BellChime rings the terminal bell.
type BellChime struct {
	W io.Writer
}

func (b BellChime) Play() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}
