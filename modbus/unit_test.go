package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitID(t *testing.T) {
	assert.True(t, UnitBroadcast.IsValid())
	assert.True(t, UnitBroadcast.IsBroadcast())
	assert.True(t, UnitIndividualMax.IsValid())
	assert.False(t, UnitID(248).IsValid())
	assert.False(t, UnitID(1).IsBroadcast())
}

func TestUnitSet(t *testing.T) {
	var empty UnitSet
	for i := 0; i < 256; i++ {
		require.False(t, empty.Contains(UnitID(i)))
	}

	s := NewUnitSet(0, 63, 64, 247)
	require.Equal(t, []UnitID{0, 63, 64, 247}, s.Units())
	require.False(t, s.Contains(1))

	s2 := s.With(100)
	require.True(t, s2.Contains(100))
	require.False(t, s.Contains(100), "With modifies receiver")
}

func TestFunctionCode(t *testing.T) {
	assert.True(t, FunctionReadInputRegisters.IsReadStyle())
	assert.False(t, FunctionWriteSingleCoil.IsReadStyle())
	assert.True(t, FunctionWriteMultipleRegisters.IsFixedReply())
	assert.False(t, FunctionReadCoils.IsFixedReply())
	assert.True(t, FunctionReadCoils.IsKnown())
	assert.False(t, FunctionCode(0x2B).IsKnown())
	assert.Equal(t, FunctionCode(0x83), FunctionReadHoldingRegisters.AsError())
	assert.True(t, FunctionCode(0x83).IsError())
	assert.Equal(t, "read holding registers (exception)", FunctionCode(0x83).String())
	assert.Equal(t, "function 65", FunctionCode(0x41).String())
}

func TestExceptionCode(t *testing.T) {
	assert.Equal(t, "illegal data address", ExceptionIllegalDataAddress.String())
	assert.Equal(t, "Modbus exception: illegal function", ExceptionIllegalFunction.Error())
	assert.Equal(t, "unknown exception 7F", ExceptionCode(0x7F).String())
}
