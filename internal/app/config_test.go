package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"

	"gochip8/internal/graphics"
	"gochip8/internal/input"
	"gochip8/internal/memory"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 10, cfg.Window.Scale)
	assert.Equal(t, string(graphics.BackendEbitengine), cfg.Video.Backend)
	assert.Equal(t, memory.MinSize, cfg.Emulation.MemorySize)
	assert.Equal(t, LogLevelInfo, cfg.Debug.LogLevel)
	assert.Equal(t, time.Millisecond, cfg.TickInterval())
	assert.Equal(t, time.Second/60, cfg.TimerInterval())
	assert.Equal(t, 150*time.Millisecond, cfg.TerminalHold())
	assert.NoError(t, cfg.validate())

	layout, err := cfg.KeypadLayout()
	assert.NoError(t, err)
	assert.Equal(t, input.DefaultLayout(), layout)
}

func TestLoadFromFile_MissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "gochip8.json")

	cfg := NewConfig()
	assert.NoError(t, cfg.LoadFromFile(path))
	assert.False(t, cfg.IsLoaded())
	assert.Equal(t, path, cfg.GetConfigPath())

	_, err := os.Stat(path)
	assert.NoError(t, err)

	reloaded := NewConfig()
	assert.NoError(t, reloaded.LoadFromFile(path))
	assert.True(t, reloaded.IsLoaded())
	assert.Equal(t, cfg.Video, reloaded.Video)
	assert.Equal(t, cfg.Input.Layout, reloaded.Input.Layout)
}

func TestSaveAndLoad_RoundTripsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gochip8.json")

	cfg := NewConfig()
	cfg.Window.Scale = 4
	cfg.Video.Backend = string(graphics.BackendTerminal)
	cfg.Emulation.TimerHz = 50
	assert.NoError(t, cfg.SaveToFile(path))

	loaded := NewConfig()
	assert.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 4, loaded.Window.Scale)
	assert.Equal(t, string(graphics.BackendTerminal), loaded.Video.Backend)
	assert.Equal(t, time.Second/50, loaded.TimerInterval())
}

func TestLoadFromFile_LayoutReplacesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gochip8.json")
	data := `{"input": {"layout": {"x": "0", "up": "0x2"}}}`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg := NewConfig()
	assert.NoError(t, cfg.LoadFromFile(path))

	layout, err := cfg.KeypadLayout()
	assert.NoError(t, err)
	assert.Len(t, layout, 2)

	key, ok := layout.Lookup("up")
	assert.True(t, ok)
	assert.Equal(t, uint8(2), key)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "malformed json",
			content: `{"window": `,
			errText: "failed to parse config file",
		},
		{
			name:    "unknown backend",
			content: `{"video": {"backend": "vulkan", "foreground": "#FFFFFF", "background": "#000000"}}`,
			errText: "video.backend",
		},
		{
			name:    "bad color",
			content: `{"video": {"backend": "headless", "foreground": "white", "background": "#000000"}}`,
			errText: "video.foreground",
		},
		{
			name:    "bad layout key",
			content: `{"input": {"layout": {"q": "10"}}}`,
			errText: "input.layout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gochip8.json")
			assert.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg := NewConfig()
			err := cfg.LoadFromFile(path)
			assert.ErrorContains(t, err, tt.errText)
		})
	}
}

func TestValidate_ClampsValues(t *testing.T) {
	cfg := NewConfig()
	cfg.Window.Scale = 100
	cfg.Input.TerminalHoldMS = -1
	cfg.Emulation.TickIntervalUS = 0
	cfg.Emulation.TimerHz = 0
	cfg.Emulation.MemorySize = 0x20000
	cfg.Debug.LogLevel = "DEBUG"

	assert.NoError(t, cfg.validate())
	assert.Equal(t, 40, cfg.Window.Scale)
	assert.Equal(t, 150, cfg.Input.TerminalHoldMS)
	assert.Equal(t, 1000, cfg.Emulation.TickIntervalUS)
	assert.Equal(t, 60, cfg.Emulation.TimerHz)
	assert.Equal(t, 0x10000, cfg.Emulation.MemorySize)
	assert.Equal(t, LogLevelDebug, cfg.Debug.LogLevel)

	cfg.Window.Scale = 0
	cfg.Emulation.MemorySize = 16
	cfg.Debug.LogLevel = "verbose"
	assert.NoError(t, cfg.validate())
	assert.Equal(t, 1, cfg.Window.Scale)
	assert.Equal(t, memory.MinSize, cfg.Emulation.MemorySize)
	assert.Equal(t, LogLevelInfo, cfg.Debug.LogLevel)
}

func TestSave_RequiresPath(t *testing.T) {
	cfg := NewConfig()
	assert.ErrorContains(t, cfg.Save(), "no config file path set")
}
