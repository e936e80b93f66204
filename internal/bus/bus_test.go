package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/cpu"
	"gochip8/internal/display"
	"gochip8/internal/memory"
	"gochip8/internal/rom"
)

// recordingPresenter collects presented frames
type recordingPresenter struct {
	mu     sync.Mutex
	frames []display.Frame
}

func (r *recordingPresenter) Present(frame display.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *recordingPresenter) Frames() []display.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]display.Frame(nil), r.frames...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 10 * time.Microsecond
	cfg.TimerInterval = time.Millisecond
	return cfg
}

func newProgram(words ...uint16) *rom.Program {
	data := make([]uint8, 0, len(words)*2)
	for _, word := range words {
		data = append(data, uint8(word>>8), uint8(word))
	}
	return &rom.Program{Name: "test", Data: data}
}

func TestNew_ShouldPowerOnMachine(t *testing.T) {
	b := New(DefaultConfig(), nil, log.NewTestLogger(t))

	assert.NotNil(t, b.CPU)
	assert.Equal(t, memory.MinSize, b.Memory.Size())
	assert.Equal(t, uint16(memory.ProgramStart), b.Memory.Cursor())
	assert.Equal(t, 0, b.Display.Count())
	assert.Equal(t, uint8(0), b.Delay.Value())
	assert.Equal(t, uint8(0), b.Sound.Value())
	assert.Equal(t, cpu.Stopped, b.State().State)
}

func TestRun_ShouldDrawAndHalt(t *testing.T) {
	presenter := &recordingPresenter{}
	b := New(testConfig(), presenter, log.NewTestLogger(t))

	program := newProgram(
		0x6005, // ld V0, 5
		0xF029, // ld F, V0
		0xD005, // drw V0, V0, 5
		0x00EE, // ret
	)
	assert.NoError(t, b.LoadProgram(program))

	err := b.Run(context.Background())
	assert.NoError(t, err)

	frames := presenter.Frames()
	assert.Len(t, frames, 2)
	assert.Equal(t, 0, frames[0].Count())
	assert.True(t, frames[1].Count() > 0)
	assert.True(t, b.Display.Pixel(5, 5))

	state := b.State()
	assert.Equal(t, "test", state.Program)
	assert.Equal(t, cpu.Halted, state.State)
	assert.Equal(t, uint64(4), state.Cycles)
}

func TestRun_ShouldShutDownTimers(t *testing.T) {
	b := New(testConfig(), nil, log.NewTestLogger(t))
	assert.NoError(t, b.LoadProgram(newProgram(0x60FF, 0xF015, 0xF018, 0x00EE)))

	assert.NoError(t, b.Run(context.Background()))
	assert.True(t, b.Delay.Stopped())
	assert.True(t, b.Sound.Stopped())

	for _, done := range []<-chan struct{}{b.Delay.Done(), b.Sound.Done()} {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timer task did not stop")
		}
	}
}

func TestRun_TimersCountDownWhileRunning(t *testing.T) {
	b := New(testConfig(), nil, log.NewTestLogger(t))
	assert.NoError(t, b.LoadProgram(newProgram(
		0x600A, // 200: ld V0, 10
		0xF015, // 202: ld DT, V0
		0xF107, // 204: ld V1, DT
		0x3100, // 206: se V1, 0
		0x1204, // 208: jp 204
		0x00EE, // 20A: ret
	)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, b.Run(ctx))
	assert.Equal(t, uint8(0), b.CPU.V[1])
}

func TestRun_ShouldReturnFatalError(t *testing.T) {
	b := New(testConfig(), nil, log.NewTestLogger(t))
	assert.NoError(t, b.LoadProgram(newProgram(0xE0FF)))

	err := b.Run(context.Background())
	var decodeErr *cpu.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.True(t, b.Delay.Stopped())
}

func TestRun_ShouldStopOnCancel(t *testing.T) {
	b := New(testConfig(), nil, log.NewTestLogger(t))
	assert.NoError(t, b.LoadProgram(newProgram(0x1200)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := b.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, b.Sound.Stopped())
}

func TestRun_WaitKeyReadsKeypad(t *testing.T) {
	b := New(testConfig(), nil, log.NewTestLogger(t))
	assert.NoError(t, b.LoadProgram(newProgram(0xF50A, 0x00EE)))

	go func() {
		time.Sleep(5 * time.Millisecond)
		b.Keypad.SetKey(0xC, true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, b.Run(ctx))
	assert.Equal(t, uint8(0xC), b.CPU.V[5])
}

func TestLoadProgram_TooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowGrow = false
	b := New(cfg, nil, log.NewTestLogger(t))

	err := b.LoadProgram(&rom.Program{Data: make([]uint8, memory.MinSize)})
	assert.True(t, errors.Is(err, rom.ErrProgramTooLarge))
}
