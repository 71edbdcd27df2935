package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderUndefinedLabelFails(t *testing.T) {
	b := NewBuilder()
	b.Export("main").JumpTo("nowhere").Ret()
	_, err := b.Finish()
	require.Error(t, err)
}

func TestBuilderForwardLabelResolves(t *testing.T) {
	b := NewBuilder()
	marker := b.ConstInt(9)
	b.Export("main").
		JumpTo("skip").
		StackPush(marker, AsIs).
		Label("skip").
		Ret()

	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))
	assert.Empty(t, in.values.values)
}

func TestBuilderDedupesRepeatedImport(t *testing.T) {
	b := NewBuilder()
	i1 := b.Import("shared")
	i2 := b.Import("shared")
	assert.Equal(t, i1, i2)
}
