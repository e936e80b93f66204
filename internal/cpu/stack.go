package cpu

// CallStack holds the return addresses of active subroutine calls. Its depth
// is bounded only by host memory.
type CallStack struct {
	frames []uint16
}

// Push saves a return address.
func (s *CallStack) Push(address uint16) {
	s.frames = append(s.frames, address)
}

// Pop removes and returns the most recent return address. It reports false
// when the stack is empty.
func (s *CallStack) Pop() (uint16, bool) {
	if len(s.frames) == 0 {
		return 0, false
	}
	last := len(s.frames) - 1
	address := s.frames[last]
	s.frames = s.frames[:last]
	return address, true
}

// Depth returns the number of active calls.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Reset drops all frames.
func (s *CallStack) Reset() {
	s.frames = s.frames[:0]
}
