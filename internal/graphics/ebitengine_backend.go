//go:build !headless
// +build !headless

package graphics

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"

	"gochip8/internal/display"
	"gochip8/internal/input"
)

// statusBarHeight is the height of the status bar in screen pixels.
const statusBarHeight = 18

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend *EbitengineBackend
	title   string
	width   int
	height  int
	game    *EbitengineGame

	mu      sync.RWMutex
	running bool
}

// EbitengineGame implements ebiten.Game for the machine display
type EbitengineGame struct {
	window    *EbitengineWindow
	ctx       context.Context
	palette   Palette
	statusBar bool
	status    func() Status
	logger    *log.Logger

	keys     *input.State
	bindings map[ebiten.Key]uint8

	mu         sync.RWMutex
	frame      display.Frame
	dirty      bool
	frameImage *ebiten.Image
	pixels     []uint8

	windowWidth  int
	windowHeight int
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	if config.Scale < 1 {
		config.Scale = 1
	}
	if config.Layout == nil {
		config.Layout = input.DefaultLayout()
	}
	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an Ebitengine window. width and height are the
// display resolution; the window is scaled by the configured factor.
func (b *EbitengineBackend) CreateWindow(title string, width, height int, keys *input.State) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}
	if keys == nil {
		keys = input.New()
	}

	bindings, err := ebitenBindings(b.config.Layout)
	if err != nil {
		return nil, err
	}

	windowWidth := width * b.config.Scale
	windowHeight := height * b.config.Scale
	if b.config.StatusBar {
		windowHeight += statusBarHeight
	}

	game := &EbitengineGame{
		palette:      b.config.Palette,
		statusBar:    b.config.StatusBar,
		status:       b.config.Status,
		logger:       b.config.Logger,
		keys:         keys,
		bindings:     bindings,
		frameImage:   ebiten.NewImage(display.Width, display.Height),
		pixels:       make([]uint8, display.Width*display.Height*4),
		dirty:        true,
		windowWidth:  windowWidth,
		windowHeight: windowHeight,
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   windowWidth,
		height:  windowHeight,
		game:    game,
		running: true,
	}

	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetScreenClearedEveryFrame(true)

	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// EbitengineWindow implementation

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.running
}

// Present stores the frame; it is uploaded on the next Draw.
func (w *EbitengineWindow) Present(frame display.Frame) {
	w.game.mu.Lock()
	defer w.game.mu.Unlock()
	w.game.frame = frame
	w.game.dirty = true
}

// Run starts the Ebitengine game loop. It returns when ctx is cancelled,
// Escape is pressed or the window is closed.
func (w *EbitengineWindow) Run(ctx context.Context) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.game.ctx = ctx
	defer w.Cleanup()

	return ebiten.RunGame(w.game)
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return nil
}

// EbitengineGame implementation

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.ctx != nil && g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.logger != nil {
			g.logger.Info("Window closed by user")
		}
		return ebiten.Termination
	}

	g.processInput()
	return nil
}

// processInput samples the bound keys. Several physical keys may map to the
// same logical key, which is held while any of them is pressed.
func (g *EbitengineGame) processInput() {
	var held [input.KeyCount]bool
	for ebitenKey, key := range g.bindings {
		if ebiten.IsKeyPressed(ebitenKey) {
			held[key] = true
		}
	}
	g.keys.SetKeys(held)
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(g.palette.Background)

	g.mu.Lock()
	if g.dirty {
		g.palette.RenderRGBA(&g.frame, g.pixels)
		g.frameImage.WritePixels(g.pixels)
		g.dirty = false
	}
	g.mu.Unlock()

	areaHeight := g.windowHeight
	if g.statusBar {
		areaHeight -= statusBarHeight
	}

	// Fit the display into the window keeping its aspect ratio
	scaleX := float64(g.windowWidth) / float64(display.Width)
	scaleY := float64(areaHeight) / float64(display.Height)
	scale := min(scaleX, scaleY)

	offsetX := (float64(g.windowWidth) - float64(display.Width)*scale) / 2
	offsetY := (float64(areaHeight) - float64(display.Height)*scale) / 2

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)

	if g.statusBar {
		g.drawStatusBar(screen, areaHeight)
	}
}

func (g *EbitengineGame) drawStatusBar(screen *ebiten.Image, y int) {
	var status Status
	if g.status != nil {
		status = g.status()
	}

	ebitenutil.DrawRect(screen, 0, float64(y), float64(g.windowWidth), statusBarHeight,
		color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF})

	labelColor := color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
	if status.Halted {
		labelColor = color.RGBA{R: 0xFF, G: 0x60, B: 0x60, A: 0xFF}
	}
	text.Draw(screen, statusText(status), basicfont.Face7x13, 6, y+13, labelColor)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// ebitenBindings resolves the physical key names of a layout.
func ebitenBindings(layout input.Layout) (map[ebiten.Key]uint8, error) {
	bindings := make(map[ebiten.Key]uint8, len(layout))
	for _, name := range layout.Names() {
		ebitenKey, ok := ebitenKeys[name]
		if !ok {
			return nil, fmt.Errorf("unsupported key '%s' in keypad layout", name)
		}
		bindings[ebitenKey] = layout[name]
	}
	return bindings, nil
}

// ebitenKeys maps physical key names used in layouts to Ebitengine keys.
var ebitenKeys = map[string]ebiten.Key{
	"0": ebiten.KeyDigit0, "1": ebiten.KeyDigit1, "2": ebiten.KeyDigit2,
	"3": ebiten.KeyDigit3, "4": ebiten.KeyDigit4, "5": ebiten.KeyDigit5,
	"6": ebiten.KeyDigit6, "7": ebiten.KeyDigit7, "8": ebiten.KeyDigit8,
	"9": ebiten.KeyDigit9,
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,
	"SPACE": ebiten.KeySpace, "ENTER": ebiten.KeyEnter,
	"UP": ebiten.KeyArrowUp, "DOWN": ebiten.KeyArrowDown,
	"LEFT": ebiten.KeyArrowLeft, "RIGHT": ebiten.KeyArrowRight,
}
