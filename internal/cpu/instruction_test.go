package cpu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		word uint16
		op   Op
		text string
	}{
		{0x00E0, OpCls, "cls"},
		{0x00EE, OpRet, "ret"},
		{0x0123, OpSys, "sys 0x123"},
		{0x1ABC, OpJump, "jp 0xABC"},
		{0x2ABC, OpCall, "call 0xABC"},
		{0x3A12, OpSkipEqImm, "se VA, 0x12"},
		{0x4A12, OpSkipNeImm, "sne VA, 0x12"},
		{0x5AB0, OpSkipEqReg, "se VA, VB"},
		{0x6A12, OpLoadImm, "ld VA, 0x12"},
		{0x7A12, OpAddImm, "add VA, 0x12"},
		{0x8AB0, OpMove, "ld VA, VB"},
		{0x8AB1, OpOr, "or VA, VB"},
		{0x8AB2, OpAnd, "and VA, VB"},
		{0x8AB3, OpXor, "xor VA, VB"},
		{0x8AB4, OpAddReg, "add VA, VB"},
		{0x8AB5, OpSub, "sub VA, VB"},
		{0x8AB6, OpShr, "shr VA"},
		{0x8AB7, OpSubn, "subn VA, VB"},
		{0x8ABE, OpShl, "shl VA"},
		{0x9AB0, OpSkipNeReg, "sne VA, VB"},
		{0xA123, OpLoadIndex, "ld I, 0x123"},
		{0xB123, OpJumpOffset, "jp V0, 0x123"},
		{0xCA0F, OpRandom, "rnd VA, 0x0F"},
		{0xDAB5, OpDraw, "drw VA, VB, 5"},
		{0xEA9E, OpSkipKey, "skp VA"},
		{0xEAA1, OpSkipNoKey, "sknp VA"},
		{0xFA07, OpLoadDelay, "ld VA, DT"},
		{0xFA0A, OpWaitKey, "ld VA, K"},
		{0xFA15, OpSetDelay, "ld DT, VA"},
		{0xFA18, OpSetSound, "ld ST, VA"},
		{0xFA1E, OpAddIndex, "add I, VA"},
		{0xFA29, OpFont, "ld F, VA"},
		{0xFA33, OpBCD, "ld B, VA"},
		{0xFA55, OpStore, "ld [I], VA"},
		{0xFA65, OpLoad, "ld VA, [I]"},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			ins, err := Decode(tc.word)
			assert.NoError(t, err)
			assert.Equal(t, tc.op, ins.Op)
			assert.Equal(t, tc.word, ins.Raw)
			assert.Equal(t, tc.text, ins.String())
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	ins, err := Decode(0xD5A7)
	assert.NoError(t, err)

	assert.Equal(t, uint8(0x5), ins.X)
	assert.Equal(t, uint8(0xA), ins.Y)
	assert.Equal(t, uint8(0x7), ins.N)
	assert.Equal(t, uint8(0xA7), ins.NN)
	assert.Equal(t, uint16(0x5A7), ins.NNN)
}

func TestDecode_UnknownSubOpcode(t *testing.T) {
	for _, word := range []uint16{0x8128, 0x812F, 0xE19F, 0xE1A2, 0xF100, 0xF1FF} {
		_, err := Decode(word)

		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Decode(0x%04X): expected *DecodeError, got %v", word, err)
		}
		assert.Equal(t, word, decodeErr.Raw)
	}
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Raw: 0xF0FF}
	assert.Equal(t, "unknown instruction 0xF0FF", err.Error())
}

func TestOp_NameUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Op(-1).Name())
}
