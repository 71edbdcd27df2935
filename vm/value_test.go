package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAddIntOverflow(t *testing.T) {
	_, err := IntValue(math.MaxInt64).Add(IntValue(1))
	require.Error(t, err)
	assert.Equal(t, Overflow, err.Kind)
}

func TestValueAddIntDoubleWidens(t *testing.T) {
	v, err := IntValue(2).Add(DoubleValue(0.5))
	require.Nil(t, err)
	assert.Equal(t, TagDouble, v.Tag())
	assert.Equal(t, 2.5, v.Double())
}

func TestValueDivByZeroFailsOverflow(t *testing.T) {
	_, err := IntValue(10).Div(IntValue(0))
	require.Error(t, err)
	assert.Equal(t, Overflow, err.Kind)
}

func TestValueModByZeroFailsOverflow(t *testing.T) {
	_, err := IntValue(10).Mod(IntValue(0))
	require.Error(t, err)
	assert.Equal(t, Overflow, err.Kind)
}

func TestValueAddressPlusInt(t *testing.T) {
	addr := AddressValue(Reg(10, Local))
	v, err := addr.Add(IntValue(5))
	require.Nil(t, err)
	assert.Equal(t, TagAddress, v.Tag())
	assert.Equal(t, uint32(15), v.Address().Index)
}

func TestValueEqualMixedIncomparableFails(t *testing.T) {
	_, err := StringValue("x").Equal(IntValue(1))
	require.Error(t, err)
	assert.Equal(t, InvalidOperation, err.Kind)
}

func TestValueEqualWidensIntDouble(t *testing.T) {
	eq, err := IntValue(2).Equal(DoubleValue(2.0))
	require.Nil(t, err)
	assert.True(t, eq)
}

func TestValueCompareNonNumericFails(t *testing.T) {
	_, err := BoolValue(true).Compare(BoolValue(false))
	require.Error(t, err)
	assert.Equal(t, InvalidOperation, err.Kind)
}

func TestValueCompareOrdering(t *testing.T) {
	c, err := IntValue(1).Compare(IntValue(2))
	require.Nil(t, err)
	assert.Equal(t, -1, c)
}

func TestValueVecEquality(t *testing.T) {
	a := VecValue([]Value{IntValue(1), StringValue("a")})
	b := VecValue([]Value{IntValue(1), StringValue("a")})
	eq, err := a.Equal(b)
	require.Nil(t, err)
	assert.True(t, eq)
}
