package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRoundTripProgram() *Program {
	b := NewBuilder()
	intC := b.ConstInt(42)
	doubleC := b.ConstDouble(3.5)
	strC := b.ConstString("hello")
	boolC := b.ConstBool(true)
	addrC := b.ConstVec([]Value{IntValue(1), IntValue(2)})
	_ = addrC

	importIdx := b.Import("demo.callback")
	local0 := Reg(0, Local)

	b.Export("main").
		Alloc(1).
		Mov(local0, AsIs, intC, AsIs).
		Add(local0, local0, intC).
		StackPush(local0, AsIs).
		StackPush(doubleC, AsIs).
		StackPush(strC, AsIs).
		StackPush(boolC, AsIs).
		ExtCall(importIdx).
		Free(1).
		Ret()

	p, err := b.Finish()
	if err != nil {
		panic(err)
	}
	return p
}

func TestCodecRoundTrip(t *testing.T) {
	p := buildRoundTripProgram()
	data, err := p.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, p.Constants(), decoded.Constants())
	assert.Equal(t, p.Imports(), decoded.Imports())
	assert.Equal(t, p.Exports(), decoded.Exports())
	assert.Equal(t, p.Instructions(), decoded.Instructions())
}

func TestCodecUnknownOpcodeReject(t *testing.T) {
	p := NewImage()
	p.append(NoOp())
	data, err := p.Encode()
	require.NoError(t, err)

	// Corrupt the single opcode byte (immediately after the header and the
	// empty constants/imports/exports sections) to an unassigned value.
	opcodeOffset := 4 + 2 + 2 + 4 + 8 + 8
	data[opcodeOffset] = 0x7F

	_, err = Decode(data)
	require.Error(t, err)
	verr, ok := err.(*VMError)
	require.True(t, ok)
	assert.Equal(t, BytecodeFormatError, verr.Kind)
	assert.Equal(t, int64(opcodeOffset), verr.Offset)
}

func TestCodecVersionGate(t *testing.T) {
	p := NewImage()
	data, err := p.Encode()
	require.NoError(t, err)

	data[4] = byte(CurrentMajor + 1)
	_, err = Decode(data)
	require.Error(t, err)
	verr, ok := err.(*VMError)
	require.True(t, ok)
	assert.Equal(t, BytecodeFormatError, verr.Kind)
}

func TestCodecTruncatedStream(t *testing.T) {
	_, err := Decode([]byte{0x52, 0x56})
	require.Error(t, err)
}
