package cpu

// RegisterCount is the number of general purpose registers.
const RegisterCount = 16

// FlagRegister is the index of VF, the carry/borrow/collision flag.
const FlagRegister = 0xF

// Registers holds the general purpose registers V0-VF and the index register I.
type Registers struct {
	V [RegisterCount]uint8
	I uint16
}

// Reset zeroes all registers.
func (r *Registers) Reset() {
	*r = Registers{}
}

// setFlag writes VF as 1 or 0.
func (r *Registers) setFlag(set bool) {
	if set {
		r.V[FlagRegister] = 1
		return
	}
	r.V[FlagRegister] = 0
}
