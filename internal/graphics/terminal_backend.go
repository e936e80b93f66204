package graphics

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"

	"gochip8/internal/display"
	"gochip8/internal/input"
)

// Terminal cell glyphs and control sequences
const (
	terminalPixelOff   = "⬛"
	terminalPixelOn    = "⬜"
	terminalClear      = "\x1B[2J\x1B[H"
	terminalInterrupt  = 0x03 // Ctrl-C in raw mode
	terminalExpireTick = 10 * time.Millisecond
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow implements the Window interface for terminal rendering.
// A terminal only reports key presses, so a pressed key counts as held for
// the configured hold time.
type TerminalWindow struct {
	title  string
	width  int
	height int
	trace  bool
	layout input.Layout
	hold   time.Duration
	keys   *input.State
	in     io.Reader
	out    io.Writer
	logger *log.Logger

	mu       sync.Mutex
	running  bool
	deadline [input.KeyCount]time.Time
	quit     chan struct{}
	quitOnce sync.Once
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Input == nil {
		config.Input = os.Stdin
	}
	if config.Layout == nil {
		config.Layout = input.DefaultLayout()
	}
	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a terminal "window"
func (b *TerminalBackend) CreateWindow(title string, width, height int, keys *input.State) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if keys == nil {
		keys = input.New()
	}

	return &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		trace:   b.config.Trace,
		layout:  b.config.Layout,
		hold:    b.config.TerminalHold,
		keys:    keys,
		in:      b.config.Input,
		out:     b.config.Output,
		logger:  b.config.Logger,
		running: true,
		quit:    make(chan struct{}),
	}, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// TerminalWindow implementation

// SetTitle sets the window title (for terminal title)
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running
}

// Present renders the frame as rows of cells. The screen is not cleared
// while tracing so that log lines stay readable.
func (w *TerminalWindow) Present(frame display.Frame) {
	var sb strings.Builder
	if !w.trace {
		sb.WriteString(terminalClear)
	}
	renderCells(&sb, &frame)

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.out, sb.String())
}

// renderCells writes one line per display row. Lines end in CRLF since the
// terminal is in raw mode.
func renderCells(sb *strings.Builder, frame *display.Frame) {
	for row := 0; row < display.Height; row++ {
		for col := 0; col < display.Width; col++ {
			if frame[row][col] {
				sb.WriteString(terminalPixelOn)
			} else {
				sb.WriteString(terminalPixelOff)
			}
		}
		sb.WriteString("\r\n")
	}
}

// Run switches stdin to raw mode when it is a terminal and feeds key presses
// into the keypad until ctx is cancelled or Ctrl-C is read.
func (w *TerminalWindow) Run(ctx context.Context) error {
	if file, ok := w.in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fd := int(file.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("setting terminal raw mode: %w", err)
		}
		defer func() {
			_ = term.Restore(fd, oldState)
		}()
	}

	// The reader blocks in Read and is left behind on shutdown.
	go w.readKeys()

	ticker := time.NewTicker(terminalExpireTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case <-w.quit:
			w.stop()
			return nil
		case now := <-ticker.C:
			w.expire(now)
		}
	}
}

func (w *TerminalWindow) readKeys() {
	reader := bufio.NewReader(w.in)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		w.handleByte(b, time.Now())
	}
}

// handleByte marks the logical key bound to b as held until now + hold.
func (w *TerminalWindow) handleByte(b byte, now time.Time) {
	if b == terminalInterrupt {
		w.quitOnce.Do(func() { close(w.quit) })
		return
	}

	key, ok := w.layout.Lookup(string(rune(b)))
	if !ok {
		return
	}

	w.mu.Lock()
	w.deadline[key] = now.Add(w.hold)
	w.mu.Unlock()
	w.keys.SetKey(key, true)

	if w.logger != nil {
		w.logger.Debug("Key pressed", log.String("physical", string(rune(b))), log.Hex("key", key))
	}
}

// expire releases keys whose hold time has passed.
func (w *TerminalWindow) expire(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key := range w.deadline {
		deadline := w.deadline[key]
		if deadline.IsZero() || now.Before(deadline) {
			continue
		}
		w.deadline[key] = time.Time{}
		w.keys.SetKey(uint8(key), false)
	}
}

func (w *TerminalWindow) stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.keys.Reset()
}

// Cleanup releases window resources
func (w *TerminalWindow) Cleanup() error {
	w.stop()
	return nil
}
