// video_interface.go - Hardware-independent video output contract

/*
███████  ██████  ██████  ██████  ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████
██      ██      ██    ██ ██   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██
███████ ██      ██    ██ ██████  █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████
     ██ ██      ██    ██ ██   ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██
███████  ██████  ██████  ██   ██ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ScoreEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"
)

// VideoError provides detailed error context for video operations.
type VideoError struct {
	Operation string
	Details   string
	Err       error
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

// FrameSnapshot encapsulates the data needed to represent a complete frame.
type FrameSnapshot struct {
	Buffer    []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
}

// DisplayConfig contains hardware-independent configuration.
type DisplayConfig struct {
	Width       int
	Height      int
	Scale       int // integer scaling factor for output
	RefreshRate int
	PixelFormat PixelFormat
	VSync       bool
	Fullscreen  bool
}

// VideoOutput is the minimal interface a display backend must implement.
type VideoOutput interface {
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	SetDisplayConfig(config DisplayConfig) error
	GetDisplayConfig() DisplayConfig
	UpdateFrame(buffer []byte) error // raw RGBA pixels only

	WaitForVSync() error
	GetFrameCount() uint64
	GetRefreshRate() int
}

type PixelFormat int

const (
	PixelFormatRGBA PixelFormat = iota
	PixelFormatRGB565
)

// KeyInputCapable backends deliver host keystrokes (and clipboard
// pastes) as bytes; the machine wires this to the UART RX path.
type KeyInputCapable interface {
	SetKeyHandler(fn func(byte))
}

// ResetCapable backends expose a host key chord for machine reset.
type ResetCapable interface {
	SetHardResetHandler(fn func())
}

// StatusCapable backends render a host-side status overlay.
type StatusCapable interface {
	SetStatusProvider(fn func() string)
}

// ClampScale bounds the integer output scale to something sane.
func ClampScale(scale int) int {
	if scale < 1 {
		return 1
	}
	if scale > 8 {
		return 8
	}
	return scale
}

// Predefined video backend types.
const (
	VIDEO_BACKEND_EBITEN = iota
)

// NewVideoOutput creates a video output instance for the given backend.
func NewVideoOutput(backend int) (VideoOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewEbitenOutput()
	default:
		return nil, &VideoError{
			Operation: "create",
			Details:   fmt.Sprintf("unknown backend %d", backend),
		}
	}
}
