package script

import "errors"

var (
	// ErrScript wraps every failure raised while loading or running a script.
	ErrScript = errors.New("script error")

	// ErrClosed is returned by a Runtime after Close.
	ErrClosed = errors.New("script runtime closed")
)
