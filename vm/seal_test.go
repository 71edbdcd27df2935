package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealTamperedRefusesExecution(t *testing.T) {
	b := NewBuilder()
	b.Export("main").Ret()
	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))

	require.NoError(t, in.RegisterManaged("late", func(s *State) error { return nil }))
	assert.Equal(t, Tampered, in.seal.state)

	err2 := in.ExecuteFunction("main")
	require.Error(t, err2)
	verr, ok := err2.(*VMError)
	require.True(t, ok)
	assert.Equal(t, InvalidOperation, verr.Kind)
}

func TestSealStaysUntamperedWithoutLateRegistration(t *testing.T) {
	b := NewBuilder()
	b.Export("main").Ret()
	program, err := b.Finish()
	require.NoError(t, err)

	in := NewInterpreter(program)
	require.NoError(t, in.ExecuteFunction("main"))
	assert.Equal(t, Untampered, in.seal.state)
	require.NoError(t, in.ExecuteFunction("main"))
}
