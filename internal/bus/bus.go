// Package bus wires the machine components together and drives a program
// from power-on to halt.
package bus

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/cpu"
	"gochip8/internal/display"
	"gochip8/internal/input"
	"gochip8/internal/memory"
	"gochip8/internal/rom"
	"gochip8/internal/timer"
)

// Config holds the machine parameters.
type Config struct {
	MemorySize    int
	AllowGrow     bool
	TickInterval  time.Duration
	TimerInterval time.Duration
	Trace         bool
	Random        cpu.Random // nil selects math/rand/v2
}

// DefaultConfig returns the parameters of the reference machine.
func DefaultConfig() Config {
	return Config{
		MemorySize:    memory.MinSize,
		AllowGrow:     true,
		TickInterval:  cpu.DefaultTickInterval,
		TimerInterval: timer.DefaultInterval,
	}
}

// Bus connects all machine components together
type Bus struct {
	CPU     *cpu.CPU
	Memory  *memory.Memory
	Display *display.Buffer
	Keypad  *input.State
	Delay   *timer.Unit
	Sound   *timer.Unit

	config    Config
	presenter display.Presenter
	logger    *log.Logger
	program   string
}

// MachineState is a snapshot of the machine for status displays.
type MachineState struct {
	Program     string
	State       cpu.State
	Cycles      uint64
	Delay       uint8
	Sound       uint8
	SoundActive bool
}

type systemRandom struct{}

func (systemRandom) Uint32() uint32 {
	return rand.Uint32()
}

// New powers on a machine. Every frame produced by a draw instruction is
// handed to presenter.
func New(cfg Config, presenter display.Presenter, logger *log.Logger) *Bus {
	if cfg.Random == nil {
		cfg.Random = systemRandom{}
	}
	if presenter == nil {
		presenter = display.PresenterFunc(func(display.Frame) {})
	}

	b := &Bus{
		Memory:    memory.New(cfg.MemorySize),
		Display:   display.New(),
		Keypad:    input.New(),
		Delay:     timer.New(cfg.TimerInterval),
		Sound:     timer.New(cfg.TimerInterval),
		config:    cfg,
		presenter: presenter,
		logger:    logger,
	}

	b.CPU = cpu.New(cpu.Dependencies{
		Memory:    b.Memory,
		Display:   b.Display,
		Presenter: presenter,
		Keypad:    b.Keypad,
		Delay:     b.Delay,
		Sound:     b.Sound,
		Random:    cfg.Random,
		Logger:    logger,
	}, cpu.WithTickInterval(cfg.TickInterval), cpu.WithTrace(cfg.Trace))

	return b
}

// LoadProgram installs a program image at the program start address.
func (b *Bus) LoadProgram(program *rom.Program) error {
	if err := program.Install(b.Memory, b.config.AllowGrow); err != nil {
		return err
	}
	b.program = program.Name

	b.logger.Info("Program loaded",
		log.String("name", program.Name),
		log.Int("bytes", program.Size()),
		log.Int("memory", b.Memory.Size()))
	return nil
}

// Run presents the blank screen, starts both timers and executes the program
// until it halts, fails or ctx is cancelled. The timers are shut down before
// Run returns.
func (b *Bus) Run(ctx context.Context) error {
	b.presenter.Present(b.Display.Frame())

	b.Delay.Start()
	b.Sound.Start()
	defer b.Shutdown()

	return b.CPU.Run(ctx)
}

// Shutdown stops both timer tasks permanently.
func (b *Bus) Shutdown() {
	b.Delay.Shutdown()
	b.Sound.Shutdown()
}

// State returns a snapshot of the machine. It is safe to call from another
// goroutine while the program runs.
func (b *Bus) State() MachineState {
	return MachineState{
		Program:     b.program,
		State:       b.CPU.State(),
		Cycles:      b.CPU.Cycles(),
		Delay:       b.Delay.Value(),
		Sound:       b.Sound.Value(),
		SoundActive: b.Sound.Active(),
	}
}
