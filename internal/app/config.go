// Package app provides configuration management for the machine.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gochip8/internal/graphics"
	"gochip8/internal/input"
	"gochip8/internal/memory"
)

// Log levels accepted in the debug section
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Headless  HeadlessConfig  `json:"headless"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Scale       int  `json:"scale"` // display resolution multiplier
	Fullscreen  bool `json:"fullscreen"`
	StatusBar   bool `json:"status_bar"`
	CloseOnHalt bool `json:"close_on_halt"`
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend    string `json:"backend"` // "ebitengine", "terminal", "headless"
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	VSync      bool   `json:"vsync"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Layout         map[string]string `json:"layout"` // physical key -> hex logical key
	TerminalHoldMS int               `json:"terminal_hold_ms"`
}

// EmulationConfig contains machine settings
type EmulationConfig struct {
	TickIntervalUS int  `json:"tick_interval_us"`
	TimerHz        int  `json:"timer_hz"`
	MemorySize     int  `json:"memory_size"`
	AllowGrow      bool `json:"allow_grow"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel  string `json:"log_level"` // "debug", "info", "error"
	Trace     bool   `json:"trace"`
	Statsview bool   `json:"statsview"`
}

// HeadlessConfig contains options of the headless backend
type HeadlessConfig struct {
	FrameDump string `json:"frame_dump"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Scale:     10, // 640x320
			StatusBar: true,
		},
		Video: VideoConfig{
			Backend:    string(graphics.BackendEbitengine),
			Foreground: "#FFFFFF",
			Background: "#000000",
			VSync:      true,
		},
		Input: InputConfig{
			Layout:         input.DefaultLayout().Strings(),
			TerminalHoldMS: 150,
		},
		Emulation: EmulationConfig{
			TickIntervalUS: 1000,
			TimerHz:        60,
			MemorySize:     memory.MinSize,
			AllowGrow:      true,
		},
		Debug: DebugConfig{
			LogLevel: LogLevelInfo,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	// File doesn't exist - save default config and return
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// A layout in the file replaces the default one instead of merging into it
	c.Input.Layout = nil
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}

	return c.SaveToFile(c.configPath)
}

// validate rejects values that cannot be used and clamps the rest
func (c *Config) validate() error {
	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendTerminal, graphics.BackendHeadless:
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend,
			Err: fmt.Errorf("unknown backend")}
	}

	if _, err := c.Palette(); err != nil {
		return err
	}
	if _, err := c.KeypadLayout(); err != nil {
		return err
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Window.Scale > 40 {
		c.Window.Scale = 40
	}

	if c.Input.TerminalHoldMS <= 0 {
		c.Input.TerminalHoldMS = 150
	}

	if c.Emulation.TickIntervalUS <= 0 {
		c.Emulation.TickIntervalUS = 1000
	}
	if c.Emulation.TimerHz <= 0 {
		c.Emulation.TimerHz = 60
	}
	if c.Emulation.MemorySize < memory.MinSize {
		c.Emulation.MemorySize = memory.MinSize
	}
	if c.Emulation.MemorySize > 0x10000 {
		c.Emulation.MemorySize = 0x10000
	}

	c.Debug.LogLevel = strings.ToLower(c.Debug.LogLevel)
	switch c.Debug.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelError:
	default:
		c.Debug.LogLevel = LogLevelInfo
	}

	return nil
}

// Palette returns the configured display colors
func (c *Config) Palette() (graphics.Palette, error) {
	foreground, err := graphics.ParseColor(c.Video.Foreground)
	if err != nil {
		return graphics.Palette{}, &ConfigError{Field: "video.foreground", Value: c.Video.Foreground, Err: err}
	}
	background, err := graphics.ParseColor(c.Video.Background)
	if err != nil {
		return graphics.Palette{}, &ConfigError{Field: "video.background", Value: c.Video.Background, Err: err}
	}
	return graphics.Palette{Foreground: foreground, Background: background}, nil
}

// KeypadLayout returns the configured physical to logical key mapping. An
// empty mapping selects the default layout.
func (c *Config) KeypadLayout() (input.Layout, error) {
	if len(c.Input.Layout) == 0 {
		return input.DefaultLayout(), nil
	}
	layout, err := input.ParseLayout(c.Input.Layout)
	if err != nil {
		return nil, &ConfigError{Field: "input.layout", Value: c.Input.Layout, Err: err}
	}
	return layout, nil
}

// TickInterval returns the pause between two instructions
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Emulation.TickIntervalUS) * time.Microsecond
}

// TimerInterval returns the countdown period of the delay and sound timers
func (c *Config) TimerInterval() time.Duration {
	return time.Second / time.Duration(c.Emulation.TimerHz)
}

// TerminalHold returns how long a terminal key press counts as held
func (c *Config) TerminalHold() time.Duration {
	return time.Duration(c.Input.TerminalHoldMS) * time.Millisecond
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gochip8.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
