//go:build headless
// +build headless

package graphics

import (
	"context"
	"errors"

	"gochip8/internal/display"
	"gochip8/internal/input"
)

var errEbitengineUnavailable = errors.New("Ebitengine backend not available in headless build")

// EbitengineBackend stub for headless builds
type EbitengineBackend struct{}

// EbitengineWindow stub for headless builds
type EbitengineWindow struct{}

// NewEbitengineBackend creates a stub backend for headless builds
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Stub implementations for EbitengineBackend
func (b *EbitengineBackend) Initialize(config Config) error {
	return errEbitengineUnavailable
}

func (b *EbitengineBackend) CreateWindow(title string, width, height int, keys *input.State) (Window, error) {
	return nil, errEbitengineUnavailable
}

func (b *EbitengineBackend) Cleanup() error {
	return nil
}

func (b *EbitengineBackend) IsHeadless() bool {
	return true
}

func (b *EbitengineBackend) GetName() string {
	return "Ebitengine-Stub"
}

// Stub implementations for EbitengineWindow
func (w *EbitengineWindow) SetTitle(title string)             {}
func (w *EbitengineWindow) GetSize() (width, height int)      { return 0, 0 }
func (w *EbitengineWindow) ShouldClose() bool                 { return true }
func (w *EbitengineWindow) Present(frame display.Frame)       {}
func (w *EbitengineWindow) Run(ctx context.Context) error     { return errEbitengineUnavailable }
func (w *EbitengineWindow) Cleanup() error                    { return nil }
