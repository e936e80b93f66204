package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/bus"
	"gochip8/internal/cpu"
	"gochip8/internal/graphics"
)

// Emulator drives the machine and reports its state to the UI goroutine
type Emulator struct {
	bus    *bus.Bus
	logger *log.Logger

	running   atomic.Bool
	startTime atomic.Int64 // unix nanoseconds
}

// NewEmulator creates a new emulator for a powered-on machine
func NewEmulator(b *bus.Bus, logger *log.Logger) *Emulator {
	return &Emulator{
		bus:    b,
		logger: logger,
	}
}

// Run executes the loaded program until it halts, fails or ctx ends.
// An ended context is not an error.
func (e *Emulator) Run(ctx context.Context) error {
	e.startTime.Store(time.Now().UnixNano())
	e.running.Store(true)
	defer e.running.Store(false)

	e.logger.Debug("Machine started")
	err := e.bus.Run(ctx)

	switch {
	case err == nil:
		e.logger.Info("Machine halted",
			log.Int("instructions", int(e.GetCycleCount())),
			log.String("uptime", e.GetUptime().Round(time.Millisecond).String()))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.logger.Debug("Machine stopped")
		return nil
	default:
		return err
	}
}

// IsRunning returns whether a program is executing
func (e *Emulator) IsRunning() bool {
	return e.running.Load()
}

// GetCycleCount returns the number of executed instructions
func (e *Emulator) GetCycleCount() uint64 {
	return e.bus.CPU.Cycles()
}

// GetUptime returns the time since the program was started
func (e *Emulator) GetUptime() time.Duration {
	start := e.startTime.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// Status returns the machine state for status bars
func (e *Emulator) Status() graphics.Status {
	state := e.bus.State()
	return graphics.Status{
		Program:     state.Program,
		Halted:      state.State == cpu.Halted,
		SoundActive: state.SoundActive,
		Cycles:      state.Cycles,
	}
}

// monitorSound logs when the sound timer starts and stops sounding. Audio
// output itself is not produced.
func (e *Emulator) monitorSound(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	active := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := e.bus.Sound.Active()
			if now == active {
				continue
			}
			active = now
			if active {
				e.logger.Debug("Sound on")
			} else {
				e.logger.Debug("Sound off")
			}
		}
	}
}
