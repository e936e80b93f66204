package graphics

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/display"
	"gochip8/internal/input"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	outputPath string
	logger     *log.Logger

	mu         sync.RWMutex
	running    bool
	frame      display.Frame
	frameCount int
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window). Keys are
// never pressed.
func (b *HeadlessBackend) CreateWindow(title string, width, height int, _ *input.State) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputPath: b.config.FrameDump,
		logger:     b.config.Logger,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// HeadlessWindow implementation

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.running
}

// Present keeps the frame as the latest one.
func (w *HeadlessWindow) Present(frame display.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = frame
	w.frameCount++
}

// Run blocks until ctx is cancelled, then writes the last frame to the
// configured output path.
func (w *HeadlessWindow) Run(ctx context.Context) error {
	<-ctx.Done()

	w.mu.Lock()
	w.running = false
	frame := w.frame
	w.mu.Unlock()

	if w.outputPath == "" {
		return nil
	}
	if err := w.saveFrameAsPBM(&frame, w.outputPath); err != nil {
		return err
	}
	if w.logger != nil {
		w.logger.Info("Frame written",
			log.String("path", w.outputPath),
			log.Int("frames", w.GetFrameCount()))
	}
	return nil
}

// saveFrameAsPBM saves the frame as a plain PBM image file
func (w *HeadlessWindow) saveFrameAsPBM(frame *display.Frame, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	return WritePBM(file, frame)
}

// WritePBM encodes a frame as a plain (P1) PBM image; lit pixels are 1.
func WritePBM(writer io.Writer, frame *display.Frame) error {
	buf := bufio.NewWriter(writer)
	fmt.Fprintf(buf, "P1\n%d %d\n", display.Width, display.Height)

	for row := 0; row < display.Height; row++ {
		for col := 0; col < display.Width; col++ {
			if col > 0 {
				buf.WriteByte(' ')
			}
			if frame[row][col] {
				buf.WriteByte('1')
			} else {
				buf.WriteByte('0')
			}
		}
		buf.WriteByte('\n')
	}

	return buf.Flush()
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// GetFrameCount returns the number of presented frames
func (w *HeadlessWindow) GetFrameCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frameCount
}

// LastFrame returns the most recently presented frame
func (w *HeadlessWindow) LastFrame() display.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}
