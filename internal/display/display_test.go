package display

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestNew_ShouldCreateClearedBuffer(t *testing.T) {
	buf := New()

	if buf == nil {
		t.Fatal("Expected buffer, got nil")
	}
	assert.Equal(t, 0, buf.Count())
}

func TestPlotXOR(t *testing.T) {
	testCases := []struct {
		name          string
		initial       bool
		bit           bool
		wantPixel     bool
		wantCollision bool
	}{
		{"unset pixel, bit clear", false, false, false, false},
		{"unset pixel, bit set", false, true, true, false},
		{"set pixel, bit clear", true, false, true, false},
		{"set pixel, bit set", true, true, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := New()
			if tc.initial {
				buf.PlotXOR(3, 7, true)
			}

			collision := buf.PlotXOR(3, 7, tc.bit)
			assert.Equal(t, tc.wantCollision, collision)
			assert.Equal(t, tc.wantPixel, buf.Pixel(3, 7))
		})
	}
}

func TestClear_ShouldUnsetAllPixels(t *testing.T) {
	buf := New()
	for row := 0; row < Height; row++ {
		for col := 0; col < Width; col++ {
			buf.PlotXOR(row, col, (row+col)%3 == 0)
		}
	}
	assert.True(t, buf.Count() > 0)

	buf.Clear()
	assert.Equal(t, 0, buf.Count())
	assert.Equal(t, Frame{}, buf.Frame())
}

func TestFrame_IsACopy(t *testing.T) {
	buf := New()
	buf.PlotXOR(0, 0, true)

	frame := buf.Frame()
	buf.PlotXOR(0, 0, true)

	assert.True(t, frame[0][0])
	assert.False(t, buf.Pixel(0, 0))
}

func TestPresenterFunc(t *testing.T) {
	var got Frame
	calls := 0
	var p Presenter = PresenterFunc(func(frame Frame) {
		calls++
		got = frame
	})

	var frame Frame
	frame[Height-1][Width-1] = true
	p.Present(frame)

	assert.Equal(t, 1, calls)
	assert.True(t, got[Height-1][Width-1])
	assert.Equal(t, 1, got.Count())
}
