// Package cpu implements the execution engine: fetch, decode and dispatch of
// the 16-bit instruction set against memory, registers, timers, display and
// keypad.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/internal/display"
	"gochip8/internal/input"
	"gochip8/internal/memory"
)

// DefaultTickInterval is the time the engine waits after every instruction.
const DefaultTickInterval = 1000 * time.Microsecond

// ErrHalt is returned by Step when a return executes with an empty call
// stack, which is how programs end.
var ErrHalt = errors.New("return with empty call stack")

// Memory is the address space as seen by the engine.
type Memory interface {
	Fetch() uint16
	Advance()
	Rewind()
	Jump(address uint16)
	Cursor() uint16
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Display is the pixel buffer as seen by the engine.
type Display interface {
	Clear()
	PlotXOR(row, col int, bit bool) bool
	Frame() display.Frame
}

// Timer is a countdown timer shared with its own periodic task.
type Timer interface {
	Set(value uint8)
	Value() uint8
}

// Random supplies random numbers for CXNN.
type Random interface {
	Uint32() uint32
}

// Dependencies are the collaborators of the engine.
type Dependencies struct {
	Memory    Memory
	Display   Display
	Presenter display.Presenter
	Keypad    input.Keypad
	Delay     Timer
	Sound     Timer
	Random    Random
	Logger    *log.Logger
}

// State is the run state of the engine.
type State int32

// Engine states
const (
	Stopped State = iota
	Running
	Halted
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Option configures the engine.
type Option func(*CPU)

// WithTickInterval sets the pause between two instructions.
func WithTickInterval(interval time.Duration) Option {
	return func(c *CPU) {
		if interval > 0 {
			c.tickInterval = interval
		}
	}
}

// WithTrace enables logging of every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(c *CPU) {
		c.trace = enabled
	}
}

// CPU is the execution engine.
type CPU struct {
	Registers

	stack     CallStack
	memory    Memory
	display   Display
	presenter display.Presenter
	keypad    input.Keypad
	delay     Timer
	sound     Timer
	random    Random
	logger    *log.Logger

	tickInterval time.Duration
	trace        bool

	state  atomic.Int32
	cycles atomic.Uint64
}

// New creates an engine with zeroed registers and an empty call stack.
func New(deps Dependencies, opts ...Option) *CPU {
	c := &CPU{
		memory:       deps.Memory,
		display:      deps.Display,
		presenter:    deps.Presenter,
		keypad:       deps.Keypad,
		delay:        deps.Delay,
		sound:        deps.Sound,
		random:       deps.Random,
		logger:       deps.Logger,
		tickInterval: DefaultTickInterval,
	}
	if c.presenter == nil {
		c.presenter = display.PresenterFunc(func(display.Frame) {})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset zeroes the registers and empties the call stack.
func (c *CPU) Reset() {
	c.Registers.Reset()
	c.stack.Reset()
	c.cycles.Store(0)
	c.state.Store(int32(Stopped))
}

// State returns the current run state.
func (c *CPU) State() State {
	return State(c.state.Load())
}

// Cycles returns the number of executed instructions.
func (c *CPU) Cycles() uint64 {
	return c.cycles.Load()
}

// StackDepth returns the number of active subroutine calls.
func (c *CPU) StackDepth() int {
	return c.stack.Depth()
}

// Run executes instructions, pausing one tick after each, until the program
// halts, a fatal error occurs or the context is cancelled. A halting program
// returns nil. Cancellation is only observed between instructions.
func (c *CPU) Run(ctx context.Context) error {
	c.state.Store(int32(Running))
	defer c.state.Store(int32(Halted))

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		if err := c.Step(); err != nil {
			if errors.Is(err, ErrHalt) {
				c.logger.Info("Program halted", log.Int("cycles", int(c.Cycles())))
				return nil
			}
			c.logger.Error("Execution failed",
				log.Hex("address", c.memory.Cursor()),
				log.Err(err))
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step fetches, decodes and executes a single instruction. Out of bounds
// memory accesses are returned as *memory.AccessError.
func (c *CPU) Step() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		accessErr, ok := r.(*memory.AccessError)
		if !ok {
			panic(r)
		}
		err = accessErr
	}()

	address := c.memory.Cursor()
	word := c.memory.Fetch()
	c.memory.Advance()

	ins, err := Decode(word)
	if err != nil {
		return fmt.Errorf("decoding instruction at 0x%04X: %w", address, err)
	}
	c.cycles.Add(1)

	if c.trace {
		c.logger.Debug("Executing instruction",
			log.Hex("address", address),
			log.Hex("opcode", word),
			log.String("instruction", ins.String()))
	}

	return c.execute(ins)
}

// execute dispatches a decoded instruction. The cursor already points past it.
func (c *CPU) execute(ins Instruction) error {
	switch ins.Op {
	case OpSys:
		c.logger.Debug("Ignoring machine code routine", log.Hex("address", ins.NNN))
	case OpCls:
		c.display.Clear()
	case OpRet:
		address, ok := c.stack.Pop()
		if !ok {
			return ErrHalt
		}
		c.memory.Jump(address)
	case OpJump:
		c.memory.Jump(ins.NNN)
	case OpCall:
		c.stack.Push(c.memory.Cursor())
		c.memory.Jump(ins.NNN)
	case OpSkipEqImm:
		c.skipIf(c.V[ins.X] == ins.NN)
	case OpSkipNeImm:
		c.skipIf(c.V[ins.X] != ins.NN)
	case OpSkipEqReg:
		c.skipIf(c.V[ins.X] == c.V[ins.Y])
	case OpSkipNeReg:
		c.skipIf(c.V[ins.X] != c.V[ins.Y])
	case OpLoadImm:
		c.V[ins.X] = ins.NN
	case OpAddImm:
		c.V[ins.X] += ins.NN
	case OpMove, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		c.logic(ins)
	case OpLoadIndex:
		c.I = ins.NNN
	case OpJumpOffset:
		c.advisory(ins, "offset taken from V0")
		c.memory.Jump(ins.NNN + uint16(c.V[0]))
	case OpRandom:
		c.V[ins.X] = uint8(c.random.Uint32()) & ins.NN
	case OpDraw:
		c.draw(ins)
	case OpSkipKey:
		c.skipIf(c.keypad.IsHeld(c.V[ins.X]))
	case OpSkipNoKey:
		c.skipIf(!c.keypad.IsHeld(c.V[ins.X]))
	default:
		c.misc(ins)
	}
	return nil
}

func (c *CPU) skipIf(condition bool) {
	if condition {
		c.memory.Advance()
	}
}

// advisory logs the convention chosen for a historically ambiguous instruction.
func (c *CPU) advisory(ins Instruction, convention string) {
	c.logger.Debug("Ambiguous instruction",
		log.String("instruction", ins.String()),
		log.String("convention", convention))
}

// logic executes the 8XY? family. VF is written before VX so that VX wins
// when X is F.
func (c *CPU) logic(ins Instruction) {
	x, y := c.V[ins.X], c.V[ins.Y]

	switch ins.Op {
	case OpMove:
		c.V[ins.X] = y
	case OpOr:
		c.V[ins.X] = x | y
	case OpAnd:
		c.V[ins.X] = x & y
	case OpXor:
		c.V[ins.X] = x ^ y
	case OpAddReg:
		sum := uint16(x) + uint16(y)
		c.setFlag(sum > 0xFF)
		c.V[ins.X] = uint8(sum)
	case OpSub:
		c.setFlag(x > y)
		c.V[ins.X] = x - y
	case OpShr:
		c.advisory(ins, "shifts VX, VY ignored")
		c.V[FlagRegister] = x & 0x01
		c.V[ins.X] = x >> 1
	case OpSubn:
		c.setFlag(y > x)
		c.V[ins.X] = y - x
	case OpShl:
		c.advisory(ins, "shifts VX, VY ignored")
		c.V[FlagRegister] = x >> 7
		c.V[ins.X] = x << 1
	}
}

// draw XORs an N row sprite read from I onto the display at (VX, VY). The
// origin wraps, the sprite itself is clipped at the right and bottom edges.
func (c *CPU) draw(ins Instruction) {
	col := int(c.V[ins.X]) % display.Width
	row := int(c.V[ins.Y]) % display.Height
	rows := min(int(ins.N), display.Height-row)
	cols := min(8, display.Width-col)

	collision := false
	for r := 0; r < rows; r++ {
		sprite := c.memory.Read(c.I + uint16(r))
		for bit := 0; bit < cols; bit++ {
			set := sprite&(0x80>>bit) != 0
			if c.display.PlotXOR(row+r, col+bit, set) {
				collision = true
			}
		}
	}
	c.setFlag(collision)

	c.presenter.Present(c.display.Frame())
}

// misc executes the FX?? family.
func (c *CPU) misc(ins Instruction) {
	switch ins.Op {
	case OpLoadDelay:
		c.V[ins.X] = c.delay.Value()
	case OpWaitKey:
		key, ok := c.keypad.FirstHeld()
		if !ok {
			c.memory.Rewind()
			return
		}
		c.V[ins.X] = key
	case OpSetDelay:
		c.delay.Set(c.V[ins.X])
	case OpSetSound:
		c.sound.Set(c.V[ins.X])
	case OpAddIndex:
		c.advisory(ins, "VF flags overflow past 0xFFF")
		sum := c.I + uint16(c.V[ins.X])
		c.setFlag(sum > 0xFFF)
		c.I = sum & 0xFFF
	case OpFont:
		c.I = memory.FontStart + uint16(c.V[ins.X])*memory.GlyphSize
	case OpBCD:
		value := c.V[ins.X]
		c.memory.Write(c.I, value/100)
		c.memory.Write(c.I+1, value/10%10)
		c.memory.Write(c.I+2, value%10)
	case OpStore:
		c.advisory(ins, "I unchanged")
		for i := uint16(0); i <= uint16(ins.X); i++ {
			c.memory.Write(c.I+i, c.V[i])
		}
	case OpLoad:
		c.advisory(ins, "I unchanged")
		for i := uint16(0); i <= uint16(ins.X); i++ {
			c.V[i] = c.memory.Read(c.I + i)
		}
	}
}
