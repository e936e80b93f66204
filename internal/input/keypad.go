// Package input implements the 16-key keypad of the virtual machine.
package input

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
)

// KeyCount is the number of logical keys on the keypad.
const KeyCount = 16

// Keypad is the capability the CPU queries for key state.
type Keypad interface {
	// IsHeld reports whether the logical key is currently held.
	IsHeld(key uint8) bool
	// FirstHeld returns a held logical key, if any.
	FirstHeld() (uint8, bool)
}

// State is a Keypad fed by an input backend. Backends write from their own
// goroutine while the CPU reads, so every key is an atomic value.
type State struct {
	keys [KeyCount]atomic.Bool
}

// Compile-time check to ensure State implements Keypad.
var _ Keypad = (*State)(nil)

// New creates a keypad state with no keys held
func New() *State {
	return &State{}
}

// SetKey sets the held state of a logical key. Keys outside 0-F are ignored.
func (s *State) SetKey(key uint8, held bool) {
	if key >= KeyCount {
		return
	}
	s.keys[key].Store(held)
}

// SetKeys replaces the held state of all keys at once.
func (s *State) SetKeys(keys [KeyCount]bool) {
	for i, held := range keys {
		s.keys[i].Store(held)
	}
}

// Reset releases all keys.
func (s *State) Reset() {
	for i := range s.keys {
		s.keys[i].Store(false)
	}
}

// IsHeld reports whether the logical key is currently held. Values outside
// 0-F are never held.
func (s *State) IsHeld(key uint8) bool {
	if key >= KeyCount {
		return false
	}
	return s.keys[key].Load()
}

// FirstHeld returns the lowest held logical key.
func (s *State) FirstHeld() (uint8, bool) {
	for i := range s.keys {
		if s.keys[i].Load() {
			return uint8(i), true
		}
	}
	return 0, false
}

// Snapshot returns the held state of all keys.
func (s *State) Snapshot() [KeyCount]bool {
	var keys [KeyCount]bool
	for i := range s.keys {
		keys[i] = s.keys[i].Load()
	}
	return keys
}

// Layout maps physical key names (upper case, "1" or "Q") to logical keys.
type Layout map[string]uint8

// DefaultLayout returns the QWERTY mapping of the left-hand key block:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
func DefaultLayout() Layout {
	return Layout{
		"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
		"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xD,
		"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xE,
		"Z": 0xA, "X": 0x0, "C": 0xB, "V": 0xF,
	}
}

// ParseLayout reads a mapping of physical key names to hexadecimal logical
// key digits, as stored in the configuration file.
func ParseLayout(mapping map[string]string) (Layout, error) {
	layout := make(Layout, len(mapping))
	for name, digit := range mapping {
		key, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(digit), "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid logical key %q for %q: %w", digit, name, err)
		}
		if key >= KeyCount {
			return nil, fmt.Errorf("logical key %q for %q out of range", digit, name)
		}
		layout[strings.ToUpper(name)] = uint8(key)
	}
	return layout, nil
}

// Lookup returns the logical key bound to a physical key name.
func (l Layout) Lookup(name string) (uint8, bool) {
	key, ok := l[strings.ToUpper(name)]
	return key, ok
}

// Names returns the bound physical key names in sorted order.
func (l Layout) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strings returns the layout in its configuration file form.
func (l Layout) Strings() map[string]string {
	mapping := make(map[string]string, len(l))
	for name, key := range l {
		mapping[name] = fmt.Sprintf("%X", key)
	}
	return mapping
}
