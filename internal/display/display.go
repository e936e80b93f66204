// Package display implements the monochrome display buffer of the virtual machine.
package display

// Display dimensions
const (
	Width  = 64
	Height = 32
)

// Frame is a snapshot of the display, indexed as [row][column].
type Frame [Height][Width]bool

// Presenter renders frames to an output device.
type Presenter interface {
	Present(frame Frame)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(frame Frame)

// Present calls f(frame).
func (f PresenterFunc) Present(frame Frame) {
	f(frame)
}

// Buffer holds the pixel state between draw instructions.
type Buffer struct {
	frame Frame
}

// New creates a cleared display buffer
func New() *Buffer {
	return &Buffer{}
}

// Clear unsets every pixel.
func (b *Buffer) Clear() {
	b.frame = Frame{}
}

// PlotXOR flips the pixel at (row, col) when bit is set and reports whether
// a previously set pixel became unset.
func (b *Buffer) PlotXOR(row, col int, bit bool) bool {
	if !bit {
		return false
	}
	previous := b.frame[row][col]
	b.frame[row][col] = !previous
	return previous
}

// Pixel returns the state of the pixel at (row, col).
func (b *Buffer) Pixel(row, col int) bool {
	return b.frame[row][col]
}

// Frame returns a copy of the current pixel state.
func (b *Buffer) Frame() Frame {
	return b.frame
}

// Count returns the number of set pixels.
func (b *Buffer) Count() int {
	return b.frame.Count()
}

// Count returns the number of set pixels in the frame.
func (f *Frame) Count() int {
	n := 0
	for row := range f {
		for col := range f[row] {
			if f[row][col] {
				n++
			}
		}
	}
	return n
}
