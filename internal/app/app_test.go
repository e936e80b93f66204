package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/internal/graphics"
)

func writeProgram(t *testing.T, dir string, words ...uint16) string {
	t.Helper()

	data := make([]uint8, 0, len(words)*2)
	for _, word := range words {
		data = append(data, uint8(word>>8), uint8(word))
	}
	path := filepath.Join(dir, "program.ch8")
	assert.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newHeadlessApplication(t *testing.T, dir string) *Application {
	t.Helper()

	application, err := NewApplication(Options{
		ConfigPath: filepath.Join(dir, "gochip8.json"),
		FrameDump:  filepath.Join(dir, "frame.pbm"),
		NoGUI:      true,
		Quiet:      true,
	})
	assert.NoError(t, err)
	t.Cleanup(func() {
		_ = application.Cleanup()
	})
	return application
}

func TestNewApplication_Headless(t *testing.T) {
	application := newHeadlessApplication(t, t.TempDir())

	assert.Equal(t, string(graphics.BackendHeadless), application.GetConfig().Video.Backend)
	assert.Equal(t, LogLevelError, application.GetConfig().Debug.LogLevel)
	assert.NotNil(t, application.GetBus())
	assert.NotNil(t, application.Logger())
	assert.False(t, application.IsRunning())
	assert.True(t, application.closeOnHalt())
}

func TestNewApplication_UnknownBackend(t *testing.T) {
	_, err := NewApplication(Options{Backend: "vulkan", Quiet: true})

	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "configuration", appErr.Component)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "video.backend", cfgErr.Field)
}

func TestApplication_RunHeadlessUntilHalt(t *testing.T) {
	dir := t.TempDir()
	application := newHeadlessApplication(t, dir)

	// draw glyph 0 at the origin, then halt
	romPath := writeProgram(t, dir, 0x6000, 0xF029, 0xD005, 0x00EE)
	assert.NoError(t, application.LoadROM(romPath))
	assert.Equal(t, romPath, application.GetROMPath())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, application.Run(ctx))

	assert.Equal(t, 14, application.GetBus().Display.Count())

	data, err := os.ReadFile(filepath.Join(dir, "frame.pbm"))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "P1\n64 32\n1 1 1 1 0"))
}

func TestApplication_RunFatalProgram(t *testing.T) {
	dir := t.TempDir()
	application := newHeadlessApplication(t, dir)

	romPath := writeProgram(t, dir, 0x6001, 0xF0FF)
	assert.NoError(t, application.LoadROM(romPath))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := application.Run(ctx)

	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "machine", appErr.Component)
	assert.ErrorContains(t, err, "unknown instruction 0xF0FF")
}

func TestApplication_LoadROMErrors(t *testing.T) {
	dir := t.TempDir()
	application := newHeadlessApplication(t, dir)

	err := application.LoadROM(filepath.Join(dir, "missing.ch8"))
	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "rom", appErr.Component)

	empty := filepath.Join(dir, "empty.ch8")
	assert.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.Error(t, application.LoadROM(empty))

	assert.ErrorContains(t, application.Run(context.Background()), "no ROM loaded")
}

func TestApplication_RunCancelled(t *testing.T) {
	dir := t.TempDir()
	application := newHeadlessApplication(t, dir)

	romPath := writeProgram(t, dir, 0x1200) // jump to self
	assert.NoError(t, application.LoadROM(romPath))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, application.Run(ctx))
	assert.False(t, application.IsRunning())
}
