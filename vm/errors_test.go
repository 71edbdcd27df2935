package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVMErrorIsMatchesSentinel(t *testing.T) {
	err := newError(Overflow, "integer overflow in Add")
	assert.True(t, errors.Is(err, ErrOverflow))
	assert.False(t, errors.Is(err, ErrInvalidOperation))
}

func TestVMErrorMessageIncludesName(t *testing.T) {
	err := newError(MissingImport, "no registered callback for import")
	err.Name = "does_not_exist"
	assert.Contains(t, err.Error(), "does_not_exist")
}
