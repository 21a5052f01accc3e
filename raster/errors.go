package raster

import (
	"errors"
	"fmt"
)

// ErrRenderTargetMissing is returned when no surface is mounted under the
// requested handle. It signals a caller bug and is never retried.
var ErrRenderTargetMissing = errors.New("render target missing")

// CaptureError reports a failure while producing a bitmap from a mounted
// surface.
type CaptureError struct {
	Handle  string
	PhotoID string // set when a photo could not be decoded
	Err     error
}

func (e *CaptureError) Error() string {
	if e.PhotoID != "" {
		return fmt.Sprintf("capture %s: photo %s: %v", e.Handle, e.PhotoID, e.Err)
	}
	return fmt.Sprintf("capture %s: %v", e.Handle, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
