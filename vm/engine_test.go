package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: add constants.
func TestScenarioAddConstants(t *testing.T) {
	b := NewBuilder()
	c0 := b.ConstInt(2)
	c1 := b.ConstInt(40)
	local0 := Reg(0, Local)

	b.Export("main").
		Alloc(1).
		Add(local0, c0, c1).
		StackPush(local0, AsIs).
		Free(1).
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))

	top, verr := in.values.peek()
	require.Nil(t, verr)
	assert.Equal(t, TagInt, top.Tag())
	assert.Equal(t, int64(42), top.Int())
}

// Scenario 2: conditional branch.
func TestScenarioConditionalBranch(t *testing.T) {
	b := NewBuilder()
	c0 := b.ConstInt(0)
	c1 := b.ConstInt(1)

	b.Export("main").
		Equal(c0, c1).
		StackPush(c0, AsIs).
		StackPush(c1, AsIs).
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))

	require.Len(t, in.values.values, 2)
	top := in.values.values[len(in.values.values)-1]
	assert.Equal(t, int64(1), top.Int())
	bottom := in.values.values[0]
	assert.Equal(t, int64(0), bottom.Int())
}

// Scenario 3: external call.
func TestScenarioExternalCall(t *testing.T) {
	b := NewBuilder()
	greeting := b.ConstString("hi")
	upperImport := b.Import("upper")

	b.Export("main").
		StackPush(greeting, AsIs).
		ExtCall(upperImport).
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.RegisterManaged("upper", func(s *State) error {
		str, verr := s.PopString()
		if verr != nil {
			return verr
		}
		out := []rune(str)
		for i, r := range out {
			if r >= 'a' && r <= 'z' {
				out[i] = r - ('a' - 'A')
			}
		}
		s.PushString(string(out))
		return nil
	}))

	require.NoError(t, in.ExecuteFunction("main"))
	top, verr := in.values.peek()
	require.Nil(t, verr)
	assert.Equal(t, "HI", top.Str())
}

// Scenario 4: missing import.
func TestScenarioMissingImport(t *testing.T) {
	b := NewBuilder()
	b.Import("does_not_exist")
	b.Export("main").Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	err2 := in.ExecuteFunction("main")
	require.Error(t, err2)
	verr, ok := err2.(*VMError)
	require.True(t, ok)
	assert.Equal(t, MissingImport, verr.Kind)
	assert.Equal(t, "does_not_exist", verr.Name)
}

// Scenario 5: overflow.
func TestScenarioOverflow(t *testing.T) {
	b := NewBuilder()
	maxC := b.ConstInt(1<<63 - 1)
	oneC := b.ConstInt(1)
	local0 := Reg(0, Local)

	b.Export("main").
		Alloc(1).
		Add(local0, maxC, oneC).
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	err2 := in.ExecuteFunction("main")
	require.Error(t, err2)
	verr, ok := err2.(*VMError)
	require.True(t, ok)
	assert.Equal(t, Overflow, verr.Kind)
	assert.NotNil(t, verr.Ctx.Instruction)
}

func TestFunctionDoesNotExist(t *testing.T) {
	program := NewImage()
	in := NewInterpreter(program)
	err := in.ExecuteFunction("nope")
	require.Error(t, err)
	verr, ok := err.(*VMError)
	require.True(t, ok)
	assert.Equal(t, FunctionDoesNotExist, verr.Kind)
}

// Recursion bound property.
func TestRecursionBound(t *testing.T) {
	b := NewBuilder()
	b.Label("loop").
		Export("loop").
		CallTo("loop").
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program).WithConfig(Config{RecursionLimit: 5})
	err2 := in.ExecuteFunction("loop")
	require.Error(t, err2)
	verr, ok := err2.(*VMError)
	require.True(t, ok)
	assert.Equal(t, RecursionLimit, verr.Kind)
}

// Move/copy duality property.
func TestMovCpyDuality(t *testing.T) {
	b := NewBuilder()
	c0 := b.ConstInt(7)
	local0 := Reg(0, Local)
	local1 := Reg(1, Local)

	b.Export("main").
		Alloc(2).
		Cpy(local0, AsIs, c0, AsIs).
		Mov(local1, AsIs, local0, AsIs).
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))

	frame := in.calls.frames[0]
	assert.Nil(t, frame.slots[0], "Mov should leave the source slot uninitialized")
	require.NotNil(t, frame.slots[1])
	assert.Equal(t, int64(7), frame.slots[1].Int())
}

// Comparison-skip law property.
func TestComparisonSkipLaw(t *testing.T) {
	b := NewBuilder()
	c1 := b.ConstInt(1)
	c2 := b.ConstInt(1)
	xMarker := b.ConstInt(100)
	yMarker := b.ConstInt(200)

	b.Export("main").
		Equal(c1, c2).
		StackPush(xMarker, AsIs). // X: skipped when predicate is true
		StackPush(yMarker, AsIs). // Y
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))
	require.Len(t, in.values.values, 1)
	assert.Equal(t, int64(200), in.values.values[0].Int())
}

// Constant-pool immutability property.
func TestConstantPoolImmutability(t *testing.T) {
	program := buildRoundTripProgram()
	before := append([]Value(nil), program.Constants()...)

	in := NewInterpreter(program)
	require.NoError(t, in.RegisterManaged("demo.callback", func(s *State) error {
		_, _ = s.PopBool()
		_, _ = s.PopString()
		_, _ = s.PopFloat()
		_, _ = s.PopInt()
		return nil
	}))
	require.NoError(t, in.ExecuteFunction("main"))

	assert.Equal(t, before, program.Constants())
}

func TestJumpToEndOfProgramTerminatesNormally(t *testing.T) {
	b := NewBuilder()
	b.Export("main").JumpDelta(1)
	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))
}

func TestJumpPastEndFailsInvalidOperation(t *testing.T) {
	b := NewBuilder()
	b.Export("main").JumpDelta(5)
	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	err2 := in.ExecuteFunction("main")
	require.Error(t, err2)
	verr, ok := err2.(*VMError)
	require.True(t, ok)
	assert.Equal(t, InvalidOperation, verr.Kind)
}

func TestFrameFreeOverPopSaturates(t *testing.T) {
	b := NewBuilder()
	b.Export("main").
		Alloc(1).
		FrameAlloc(2, Local).
		FrameFree(10, Local).
		Ret()
	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))
}
