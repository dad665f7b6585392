package state

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("frame not found")
	ErrNoFrames = errors.New("no frames to export")
	ErrExport   = errors.New("export failed")
	ErrDecode   = errors.New("frame decode failed")
	// ErrBusy is returned by mutating controls while an export is running.
	ErrBusy = errors.New("export in progress")
)

// NotFoundError reports an operation addressed at an absent frame id.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("frame %d not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NoFramesError is returned when every frame is blank at export time.
type NoFramesError struct{}

func (e *NoFramesError) Error() string { return ErrNoFrames.Error() }

func (e *NoFramesError) Is(target error) bool { return target == ErrNoFrames }

// ExportError wraps a failure that happened while building the archive.
type ExportError struct {
	Stage string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed during %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExport }

// DecodeError reports a frame buffer that could not be decoded. Callers
// rendering frames recover from it by skipping the frame.
type DecodeError struct {
	ID  int
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %d: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
