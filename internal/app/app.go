// Package app implements the main application: it loads the configuration,
// wires the machine to a graphics backend and supervises both until the
// program halts or the user quits.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"

	"gochip8/internal/bus"
	"gochip8/internal/display"
	"gochip8/internal/graphics"
	"gochip8/internal/rom"
	"gochip8/internal/statsview"
)

// Options are the command line overrides of the configuration
type Options struct {
	ConfigPath string
	Backend    string
	FrameDump  string
	Debug      bool
	Trace      bool
	Quiet      bool
	NoGUI      bool
}

// Application represents the main application
type Application struct {
	config *Config
	logger *log.Logger

	// Core components
	bus      *bus.Bus
	emulator *Emulator

	// Graphics backend
	backendType     graphics.BackendType
	graphicsBackend graphics.Backend
	window          graphics.Window

	romPath     string
	initialized bool
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new application
func NewApplication(opts Options) (*Application, error) {
	app := &Application{
		config: NewConfig(),
	}

	var configErr error
	if opts.ConfigPath != "" {
		if err := app.config.LoadFromFile(opts.ConfigPath); err != nil {
			configErr = err
			app.config = NewConfig()
		}
	}
	app.applyOptions(opts)

	level := app.config.Debug.LogLevel
	app.logger = CreateLogger(level == LogLevelDebug, level == LogLevelError)
	if configErr != nil {
		app.logger.Error("Could not load config, using defaults",
			log.String("path", opts.ConfigPath), log.Err(configErr))
	}

	if err := app.config.validate(); err != nil {
		return nil, &ApplicationError{
			Component: "configuration",
			Operation: "validation",
			Err:       err,
		}
	}

	if err := app.initializeComponents(); err != nil {
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// applyOptions lets command line flags override the configuration file
func (app *Application) applyOptions(opts Options) {
	if opts.Backend != "" {
		app.config.Video.Backend = opts.Backend
	}
	if opts.NoGUI {
		app.config.Video.Backend = string(graphics.BackendHeadless)
	}
	if opts.FrameDump != "" {
		app.config.Headless.FrameDump = opts.FrameDump
	}
	if opts.Trace {
		app.config.Debug.Trace = true
	}
	switch {
	case opts.Debug || opts.Trace:
		app.config.Debug.LogLevel = LogLevelDebug
	case opts.Quiet:
		app.config.Debug.LogLevel = LogLevelError
	}
}

// initializeComponents powers on the machine and creates the window
func (app *Application) initializeComponents() error {
	busConfig := bus.Config{
		MemorySize:    app.config.Emulation.MemorySize,
		AllowGrow:     app.config.Emulation.AllowGrow,
		TickInterval:  app.config.TickInterval(),
		TimerInterval: app.config.TimerInterval(),
		Trace:         app.config.Debug.Trace,
	}

	// The window is created after the bus since it needs the keypad
	presenter := display.PresenterFunc(func(frame display.Frame) {
		if app.window != nil {
			app.window.Present(frame)
		}
	})
	app.bus = bus.New(busConfig, presenter, app.logger)
	app.emulator = NewEmulator(app.bus, app.logger)

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.initialized = true
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	app.backendType = graphics.BackendType(app.config.Video.Backend)

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(app.backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	palette, err := app.config.Palette()
	if err != nil {
		return err
	}
	layout, err := app.config.KeypadLayout()
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gochip8",
		Scale:        app.config.Window.Scale,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		StatusBar:    app.config.Window.StatusBar,
		Palette:      palette,
		Layout:       layout,
		TerminalHold: app.config.TerminalHold(),
		Headless:     app.backendType == graphics.BackendHeadless,
		FrameDump:    app.config.Headless.FrameDump,
		Trace:        app.config.Debug.Trace,
		Status:       app.emulator.Status,
		Logger:       app.logger,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle,
		display.Width, display.Height, app.bus.Keypad)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	app.logger.Debug("Graphics backend initialized", log.String("backend", app.graphicsBackend.GetName()))
	return nil
}

// LoadROM loads a program image into the machine
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	program, err := rom.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{
			Component: "rom",
			Operation: "load ROM",
			Err:       err,
		}
	}

	if err := app.bus.LoadProgram(program); err != nil {
		return &ApplicationError{
			Component: "memory",
			Operation: "install program",
			Err:       err,
		}
	}
	app.romPath = romPath

	app.window.SetTitle(fmt.Sprintf("gochip8 - %s", program.Name))
	return nil
}

// Run executes the loaded program. The window runs on the calling goroutine,
// the machine on its own. Whichever ends first stops the other, except that
// a GUI window stays open after a clean halt unless configured otherwise.
func (app *Application) Run(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.romPath == "" {
		return errors.New("no ROM loaded")
	}

	if app.config.Debug.Statsview {
		statsview.Launch(app.logger)
	}

	uiCtx, closeUI := context.WithCancel(ctx)
	defer closeUI()
	machineParent, stopMachine := context.WithCancel(ctx)
	defer stopMachine()

	g, machineCtx := errgroup.WithContext(machineParent)
	g.Go(func() error {
		err := app.emulator.Run(machineCtx)
		if err != nil || app.closeOnHalt() {
			closeUI()
		}
		// Sound monitoring ends with the machine
		stopMachine()
		return err
	})
	g.Go(func() error {
		return app.emulator.monitorSound(machineCtx, app.config.TimerInterval())
	})

	uiErr := app.window.Run(uiCtx)
	stopMachine()
	machineErr := g.Wait()

	if machineErr != nil {
		return &ApplicationError{
			Component: "machine",
			Operation: "run program",
			Err:       machineErr,
		}
	}
	if uiErr != nil {
		return &ApplicationError{
			Component: "graphics",
			Operation: "run window",
			Err:       uiErr,
		}
	}
	return nil
}

// closeOnHalt reports whether the window closes once the program halts.
// Only a GUI window can keep showing the final frame.
func (app *Application) closeOnHalt() bool {
	return app.config.Window.CloseOnHalt || app.backendType != graphics.BackendEbitengine
}

// GetBus returns the machine
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// Logger returns the application logger
func (app *Application) Logger() *log.Logger {
	return app.logger
}

// IsRunning returns whether a program is executing
func (app *Application) IsRunning() bool {
	return app.emulator != nil && app.emulator.IsRunning()
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var lastErr error

	if app.bus != nil {
		app.bus.Shutdown()
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			app.logger.Error("Window cleanup failed", log.Err(err))
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			app.logger.Error("Graphics backend cleanup failed", log.Err(err))
		}
	}

	app.initialized = false
	app.logger.Debug("Application cleanup complete")
	return lastErr
}
