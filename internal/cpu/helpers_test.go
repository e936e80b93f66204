package cpu

import (
	"testing"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/display"
	"gochip8/internal/input"
	"gochip8/internal/memory"
)

// MockTimer implements Timer without a periodic task
type MockTimer struct {
	value uint8
	sets  int
}

func (m *MockTimer) Set(value uint8) {
	m.value = value
	m.sets++
}

func (m *MockTimer) Value() uint8 {
	return m.value
}

// FixedRandom returns the same number on every call
type FixedRandom uint32

func (f FixedRandom) Uint32() uint32 {
	return uint32(f)
}

// CPUTestHelper wires an engine to real memory, display and keypad
type CPUTestHelper struct {
	CPU     *CPU
	Memory  *memory.Memory
	Display *display.Buffer
	Keypad  *input.State
	Delay   *MockTimer
	Sound   *MockTimer
	Frames  []display.Frame
}

// NewCPUTestHelper creates a new test helper
func NewCPUTestHelper(t *testing.T, opts ...Option) *CPUTestHelper {
	t.Helper()

	h := &CPUTestHelper{
		Memory:  memory.New(memory.MinSize),
		Display: display.New(),
		Keypad:  input.New(),
		Delay:   &MockTimer{},
		Sound:   &MockTimer{},
	}
	h.CPU = New(Dependencies{
		Memory:  h.Memory,
		Display: h.Display,
		Presenter: display.PresenterFunc(func(frame display.Frame) {
			h.Frames = append(h.Frames, frame)
		}),
		Keypad: h.Keypad,
		Delay:  h.Delay,
		Sound:  h.Sound,
		Random: FixedRandom(0xA5),
		Logger: log.NewTestLogger(t),
	}, append([]Option{WithTrace(true)}, opts...)...)
	return h
}

// LoadProgram writes instruction words starting at the program start
func (h *CPUTestHelper) LoadProgram(words ...uint16) {
	address := uint16(memory.ProgramStart)
	for _, word := range words {
		h.Memory.Write(address, uint8(word>>8))
		h.Memory.Write(address+1, uint8(word))
		address += memory.InstructionWidth
	}
}

// StepN executes n instructions and fails the test on any error
func (h *CPUTestHelper) StepN(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := h.CPU.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
}
