// Package rom implements loading of program images into the address space.
package rom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gochip8/internal/memory"
)

var (
	// ErrEmptyProgram is returned for an image without any bytes.
	ErrEmptyProgram = errors.New("program image is empty")
	// ErrProgramTooLarge is returned when an image does not fit the program
	// region and growing the address space is disabled.
	ErrProgramTooLarge = errors.New("program image does not fit into memory")
)

// Program is a raw program image. It has no header; the bytes are copied
// verbatim to the program start address.
type Program struct {
	Name string
	Data []uint8
}

// LoadFromFile loads a program image from a file
func LoadFromFile(filename string) (*Program, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	program, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("loading '%s': %w", filename, err)
	}
	program.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return program, nil
}

// LoadFromReader loads a program image from an io.Reader
func LoadFromReader(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyProgram
	}
	return &Program{Data: data}, nil
}

// Size returns the number of bytes in the image.
func (p *Program) Size() int {
	return len(p.Data)
}

// Install moves the cursor to the program start and copies the image into
// the program region. An image larger than the region grows the address
// space when allowGrow is set and fails with ErrProgramTooLarge otherwise.
func (p *Program) Install(mem *memory.Memory, allowGrow bool) error {
	if len(p.Data) == 0 {
		return ErrEmptyProgram
	}

	required := memory.ProgramStart + len(p.Data)
	if required > mem.Size() {
		if !allowGrow {
			return fmt.Errorf("%w: %d bytes, %d available", ErrProgramTooLarge,
				len(p.Data), mem.Size()-memory.ProgramStart)
		}
		mem.Grow(required)
	}

	mem.Jump(memory.ProgramStart)
	copy(mem.ProgramRegion(), p.Data)
	return nil
}
