package tui

import "errors"

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("tui: aborted")
