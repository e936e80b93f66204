// Package memory implements the flat address space of the virtual machine.
package memory

import "fmt"

// Memory layout constants
const (
	// MinSize is the smallest address space the machine accepts.
	MinSize = 0x1000
	// FontStart is where the hexadecimal glyphs are installed.
	FontStart = 0x50
	// GlyphSize is the number of bytes per glyph.
	GlyphSize = 5
	// ProgramStart is where programs are loaded and execution begins.
	ProgramStart = 0x200
	// InstructionWidth is the size of one encoded instruction in bytes.
	InstructionWidth = 2
)

// font holds the glyphs 0-F, 5 rows each, 4 pixels wide (high nibble).
var font = [16 * GlyphSize]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory represents the address space together with its read/execute cursor
type Memory struct {
	data   []uint8
	cursor int
}

// AccessError describes an access outside the address space. Memory panics
// with an *AccessError; the CPU recovers it and halts with it.
type AccessError struct {
	Op   string
	Addr int
	Size int
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("memory %s out of bounds: address 0x%04X, size 0x%04X", e.Op, e.Addr, e.Size)
}

// New creates a new address space of at least MinSize bytes with the font
// installed and the cursor at ProgramStart.
func New(size int) *Memory {
	if size < MinSize {
		size = MinSize
	}

	mem := &Memory{
		data: make([]uint8, size),
	}
	mem.Reset()
	return mem
}

// Reset clears the address space, reinstalls the font and moves the cursor
// back to ProgramStart.
func (m *Memory) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
	copy(m.data[FontStart:], font[:])
	m.cursor = ProgramStart
}

// Size returns the number of addressable bytes.
func (m *Memory) Size() int {
	return len(m.data)
}

// Grow enlarges the address space to size bytes, keeping its content.
// Smaller sizes are ignored.
func (m *Memory) Grow(size int) {
	if size <= len(m.data) {
		return
	}
	data := make([]uint8, size)
	copy(data, m.data)
	m.data = data
}

// ProgramRegion returns the mutable slice the program loader may fill.
func (m *Memory) ProgramRegion() []uint8 {
	return m.data[ProgramStart:]
}

// Fetch reads the big-endian instruction word at the cursor without moving it.
func (m *Memory) Fetch() uint16 {
	m.check("fetch", m.cursor)
	m.check("fetch", m.cursor+1)
	return uint16(m.data[m.cursor])<<8 | uint16(m.data[m.cursor+1])
}

// Advance moves the cursor forward by one instruction.
func (m *Memory) Advance() {
	m.cursor += InstructionWidth
}

// Rewind moves the cursor back by one instruction.
func (m *Memory) Rewind() {
	m.cursor -= InstructionWidth
}

// Jump sets the cursor to an absolute address.
func (m *Memory) Jump(address uint16) {
	m.cursor = int(address)
}

// Cursor returns the current cursor position.
func (m *Memory) Cursor() uint16 {
	return uint16(m.cursor)
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	m.check("read", int(address))
	return m.data[address]
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.check("write", int(address))
	m.data[address] = value
}

// check panics with an *AccessError when address is not a valid index.
func (m *Memory) check(op string, address int) {
	if address < 0 || address >= len(m.data) {
		panic(&AccessError{Op: op, Addr: address, Size: len(m.data)})
	}
}
