package cpu

import "fmt"

// Op identifies a decoded operation.
type Op int

// Operations of the instruction set.
const (
	OpSys        Op = iota // 0NNN machine code routine, ignored
	OpCls                  // 00E0
	OpRet                  // 00EE
	OpJump                 // 1NNN
	OpCall                 // 2NNN
	OpSkipEqImm            // 3XNN
	OpSkipNeImm            // 4XNN
	OpSkipEqReg            // 5XY0
	OpLoadImm              // 6XNN
	OpAddImm               // 7XNN
	OpMove                 // 8XY0
	OpOr                   // 8XY1
	OpAnd                  // 8XY2
	OpXor                  // 8XY3
	OpAddReg               // 8XY4
	OpSub                  // 8XY5
	OpShr                  // 8XY6
	OpSubn                 // 8XY7
	OpShl                  // 8XYE
	OpSkipNeReg            // 9XY0
	OpLoadIndex            // ANNN
	OpJumpOffset           // BNNN
	OpRandom               // CXNN
	OpDraw                 // DXYN
	OpSkipKey              // EX9E
	OpSkipNoKey            // EXA1
	OpLoadDelay            // FX07
	OpWaitKey              // FX0A
	OpSetDelay             // FX15
	OpSetSound             // FX18
	OpAddIndex             // FX1E
	OpFont                 // FX29
	OpBCD                  // FX33
	OpStore                // FX55
	OpLoad                 // FX65
)

var opNames = map[Op]string{
	OpSys:        "sys",
	OpCls:        "cls",
	OpRet:        "ret",
	OpJump:       "jp",
	OpCall:       "call",
	OpSkipEqImm:  "se",
	OpSkipNeImm:  "sne",
	OpSkipEqReg:  "se",
	OpLoadImm:    "ld",
	OpAddImm:     "add",
	OpMove:       "ld",
	OpOr:         "or",
	OpAnd:        "and",
	OpXor:        "xor",
	OpAddReg:     "add",
	OpSub:        "sub",
	OpShr:        "shr",
	OpSubn:       "subn",
	OpShl:        "shl",
	OpSkipNeReg:  "sne",
	OpLoadIndex:  "ld",
	OpJumpOffset: "jp",
	OpRandom:     "rnd",
	OpDraw:       "drw",
	OpSkipKey:    "skp",
	OpSkipNoKey:  "sknp",
	OpLoadDelay:  "ld",
	OpWaitKey:    "ld",
	OpSetDelay:   "ld",
	OpSetSound:   "ld",
	OpAddIndex:   "add",
	OpFont:       "ld",
	OpBCD:        "ld",
	OpStore:      "ld",
	OpLoad:       "ld",
}

// Name returns the mnemonic of the operation.
func (o Op) Name() string {
	name, ok := opNames[o]
	if !ok {
		return "unknown"
	}
	return name
}

// Instruction is a decoded instruction word with its operand fields.
type Instruction struct {
	Op  Op
	Raw uint16
	X   uint8  // second nibble
	Y   uint8  // third nibble
	N   uint8  // fourth nibble
	NN  uint8  // low byte
	NNN uint16 // low 12 bits
}

// DecodeError is returned for a word whose sub-opcode is unknown.
type DecodeError struct {
	Raw uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown instruction 0x%04X", e.Raw)
}

// Decode splits an instruction word into its fields and identifies the
// operation.
func Decode(word uint16) (Instruction, error) {
	ins := Instruction{
		Raw: word,
		X:   uint8(word>>8) & 0xF,
		Y:   uint8(word>>4) & 0xF,
		N:   uint8(word) & 0xF,
		NN:  uint8(word),
		NNN: word & 0xFFF,
	}

	op, ok := decodeOp(word, ins)
	if !ok {
		return Instruction{}, &DecodeError{Raw: word}
	}
	ins.Op = op
	return ins, nil
}

func decodeOp(word uint16, ins Instruction) (Op, bool) {
	switch word >> 12 {
	case 0x0:
		switch ins.NNN {
		case 0x0E0:
			return OpCls, true
		case 0x0EE:
			return OpRet, true
		default:
			return OpSys, true
		}
	case 0x1:
		return OpJump, true
	case 0x2:
		return OpCall, true
	case 0x3:
		return OpSkipEqImm, true
	case 0x4:
		return OpSkipNeImm, true
	case 0x5:
		return OpSkipEqReg, true
	case 0x6:
		return OpLoadImm, true
	case 0x7:
		return OpAddImm, true
	case 0x8:
		return decodeLogic(ins.N)
	case 0x9:
		return OpSkipNeReg, true
	case 0xA:
		return OpLoadIndex, true
	case 0xB:
		return OpJumpOffset, true
	case 0xC:
		return OpRandom, true
	case 0xD:
		return OpDraw, true
	case 0xE:
		switch ins.NN {
		case 0x9E:
			return OpSkipKey, true
		case 0xA1:
			return OpSkipNoKey, true
		}
	case 0xF:
		return decodeMisc(ins.NN)
	}
	return 0, false
}

func decodeLogic(n uint8) (Op, bool) {
	switch n {
	case 0x0:
		return OpMove, true
	case 0x1:
		return OpOr, true
	case 0x2:
		return OpAnd, true
	case 0x3:
		return OpXor, true
	case 0x4:
		return OpAddReg, true
	case 0x5:
		return OpSub, true
	case 0x6:
		return OpShr, true
	case 0x7:
		return OpSubn, true
	case 0xE:
		return OpShl, true
	default:
		return 0, false
	}
}

func decodeMisc(nn uint8) (Op, bool) {
	switch nn {
	case 0x07:
		return OpLoadDelay, true
	case 0x0A:
		return OpWaitKey, true
	case 0x15:
		return OpSetDelay, true
	case 0x18:
		return OpSetSound, true
	case 0x1E:
		return OpAddIndex, true
	case 0x29:
		return OpFont, true
	case 0x33:
		return OpBCD, true
	case 0x55:
		return OpStore, true
	case 0x65:
		return OpLoad, true
	default:
		return 0, false
	}
}

// String renders the instruction in assembler notation, for example
// "drw V1, V2, 5".
func (i Instruction) String() string {
	name := i.Op.Name()

	switch i.Op {
	case OpCls, OpRet:
		return name
	case OpSys, OpJump, OpCall:
		return fmt.Sprintf("%s 0x%03X", name, i.NNN)
	case OpSkipEqImm, OpSkipNeImm, OpLoadImm, OpAddImm:
		return fmt.Sprintf("%s V%X, 0x%02X", name, i.X, i.NN)
	case OpSkipEqReg, OpSkipNeReg, OpMove, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("%s V%X, V%X", name, i.X, i.Y)
	case OpShr, OpShl, OpSkipKey, OpSkipNoKey:
		return fmt.Sprintf("%s V%X", name, i.X)
	case OpLoadIndex:
		return fmt.Sprintf("%s I, 0x%03X", name, i.NNN)
	case OpJumpOffset:
		return fmt.Sprintf("%s V0, 0x%03X", name, i.NNN)
	case OpRandom:
		return fmt.Sprintf("%s V%X, 0x%02X", name, i.X, i.NN)
	case OpDraw:
		return fmt.Sprintf("%s V%X, V%X, %d", name, i.X, i.Y, i.N)
	case OpLoadDelay:
		return fmt.Sprintf("%s V%X, DT", name, i.X)
	case OpWaitKey:
		return fmt.Sprintf("%s V%X, K", name, i.X)
	case OpSetDelay:
		return fmt.Sprintf("%s DT, V%X", name, i.X)
	case OpSetSound:
		return fmt.Sprintf("%s ST, V%X", name, i.X)
	case OpAddIndex:
		return fmt.Sprintf("%s I, V%X", name, i.X)
	case OpFont:
		return fmt.Sprintf("%s F, V%X", name, i.X)
	case OpBCD:
		return fmt.Sprintf("%s B, V%X", name, i.X)
	case OpStore:
		return fmt.Sprintf("%s [I], V%X", name, i.X)
	case OpLoad:
		return fmt.Sprintf("%s V%X, [I]", name, i.X)
	default:
		return fmt.Sprintf("%s 0x%04X", name, i.Raw)
	}
}
