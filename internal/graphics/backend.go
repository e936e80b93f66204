// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/display"
	"gochip8/internal/input"
)

// Backend represents a graphics rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering that feeds key state into keys
	CreateWindow(title string, width, height int, keys *input.State) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window. Present may be called from the
// machine goroutine while Run executes the UI loop.
type Window interface {
	display.Presenter

	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// Run executes the UI loop until ctx is cancelled or the user closes the
	// window. It must be called on the main goroutine.
	Run(ctx context.Context) error

	// Cleanup releases window resources
	Cleanup() error
}

// Status describes the machine for status bars.
type Status struct {
	Program     string
	Halted      bool
	SoundActive bool
	Cycles      uint64
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle string
	Scale       int
	Fullscreen  bool
	VSync       bool
	StatusBar   bool

	// Rendering configuration
	Palette Palette

	// Input configuration
	Layout       input.Layout
	TerminalHold time.Duration

	// Backend-specific options
	Headless  bool
	FrameDump string    // headless: PBM file written with the last frame
	Trace     bool      // terminal: keep previous frames on screen
	Output    io.Writer // terminal: defaults to stdout
	Input     io.Reader // terminal: defaults to stdin

	Status func() Status
	Logger *log.Logger
}

// DefaultConfig returns a backend configuration with the default palette and
// keypad layout.
func DefaultConfig() Config {
	return Config{
		WindowTitle:  "gochip8",
		Scale:        10,
		VSync:        true,
		StatusBar:    true,
		Palette:      DefaultPalette(),
		Layout:       input.DefaultLayout(),
		TerminalHold: 150 * time.Millisecond,
	}
}

// Palette holds the colors of lit and unlit pixels.
type Palette struct {
	Foreground color.RGBA
	Background color.RGBA
}

// DefaultPalette returns white pixels on black.
func DefaultPalette() Palette {
	return Palette{
		Foreground: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Background: color.RGBA{A: 0xFF},
	}
}

// ParseColor parses a "#RRGGBB" or "RRGGBB" hex color.
func ParseColor(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color '%s'", s)
	}
	rgb, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color '%s': %w", s, err)
	}
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}, nil
}

// RenderRGBA converts a frame into RGBA pixel data of display.Width x
// display.Height pixels. pix must hold 4 bytes per pixel.
func (p Palette) RenderRGBA(frame *display.Frame, pix []uint8) {
	i := 0
	for row := 0; row < display.Height; row++ {
		for col := 0; col < display.Width; col++ {
			c := p.Background
			if frame[row][col] {
				c = p.Foreground
			}
			pix[i] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
			pix[i+3] = c.A
			i += 4
		}
	}
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend '%s'", backendType)
	}
}

// statusText renders the status bar label.
func statusText(status Status) string {
	label := status.Program
	if label == "" {
		label = "gochip8"
	}
	if status.Halted {
		label += "  HALTED"
	}
	if status.SoundActive {
		label += "  BEEP"
	}
	return label
}
