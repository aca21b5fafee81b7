package modbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	for s, expect := range map[string]DataType{
		"discrete": DataTypeDiscreteInputs,
		"coils":    DataTypeCoils,
		"input":    DataTypeInputRegisters,
		"holding":  DataTypeHoldingRegisters,
		"hregs":    DataTypeHoldingRegisters,
	} {
		dt, err := ParseDataType(s)
		require.NoError(t, err, s)
		assert.Equal(t, expect, dt, s)
	}
	_, err := ParseDataType("eeprom")
	require.Error(t, err)
	assert.True(t, DataTypeCoils.IsBits())
	assert.False(t, DataTypeInputRegisters.IsBits())
	assert.Equal(t, "holding registers", DataTypeHoldingRegisters.String())
}

func TestDataRangeValidate(t *testing.T) {
	require.NoError(t, DataRange{DataTypeCoils, 0, 1}.Validate())
	require.NoError(t, DataRange{DataTypeCoils, 0xFFFF, 1}.Validate())
	require.Error(t, DataRange{DataTypeCoils, 0, 0}.Validate())
	require.Error(t, DataRange{DataTypeCoils, 0xFFFF, 2}.Validate())
	require.Error(t, DataRange{numDataTypes, 0, 1}.Validate())
}

func TestNewRegistersOverlap(t *testing.T) {
	_, err := NewRegisters(
		DataRange{DataTypeHoldingRegisters, 10, 10},
		DataRange{DataTypeHoldingRegisters, 0, 11},
	)
	require.Error(t, err)

	_, err = NewRegisters(
		DataRange{DataTypeHoldingRegisters, 10, 10},
		DataRange{DataTypeInputRegisters, 0, 11},
	)
	require.NoError(t, err)
}

func TestRegistersGetSet(t *testing.T) {
	regs, err := NewRegisters(
		DataRange{DataTypeHoldingRegisters, 20, 10},
		DataRange{DataTypeHoldingRegisters, 10, 10},
		DataRange{DataTypeHoldingRegisters, 40, 5},
		DataRange{DataTypeCoils, 0, 16},
	)
	require.NoError(t, err)

	// Spanning two adjacent ranges.
	require.NoError(t, regs.Set(DataTypeHoldingRegisters, 18, 1, 2, 3, 4))
	values, err := regs.Get(DataTypeHoldingRegisters, 17, 6)
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 1, 2, 3, 4, 0}, values)

	// Gap between 30 and 40.
	_, err = regs.Get(DataTypeHoldingRegisters, 28, 14)
	require.ErrorIs(t, err, ExceptionIllegalDataAddress)
	require.ErrorIs(t, regs.Set(DataTypeHoldingRegisters, 44, 1, 2), ExceptionIllegalDataAddress)
	_, err = regs.Get(DataTypeInputRegisters, 0, 1)
	require.ErrorIs(t, err, ExceptionIllegalDataAddress)

	require.NoError(t, regs.Set(DataTypeCoils, 3, 7, 0, 1))
	values, err = regs.Get(DataTypeCoils, 2, 4)
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 1, 0, 1}, values)
}

func TestRegistersConcurrentAccess(t *testing.T) {
	regs, err := NewRegisters(
		DataRange{DataTypeHoldingRegisters, 0, 4},
		DataRange{DataTypeHoldingRegisters, 4, 4},
	)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint16) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !assert.NoError(t, regs.Set(DataTypeHoldingRegisters, 2, v, v, v, v)) {
					return
				}
				values, err := regs.Get(DataTypeHoldingRegisters, 2, 4)
				if !assert.NoError(t, err) {
					return
				}
				// Spanning writes are atomic across blocks.
				assert.Equal(t, []uint16{values[0], values[0], values[0], values[0]}, values)
			}
		}(uint16(i))
	}
	wg.Wait()
}

func TestRegistersAddToServer(t *testing.T) {
	regs, err := NewRegisters(DataRange{DataTypeHoldingRegisters, 0, 4})
	require.NoError(t, err)
	srv := NewServer()
	require.NoError(t, regs.AddToServer(srv, 1))
	require.Error(t, regs.AddToServer(srv, 1))
	require.Error(t, regs.AddToServer(nil, 1))

	req, err := decodeRequest(rtuAddress{}, 1,
		[]byte{0x10, 0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02})
	require.NoError(t, err)
	resp, err := srv.Request(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x01, 0x00, 0x02}, resp)

	req, err = decodeRequest(rtuAddress{}, 1, []byte{0x03, 0x00, 0x00, 0x00, 0x03})
	require.NoError(t, err)
	resp, err = srv.Request(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []byte{0x06, 0x00, 0x00, 0x00, 0x0A, 0x01, 0x02}, resp)

	req, err = decodeRequest(rtuAddress{}, 1, []byte{0x03, 0x00, 0x03, 0x00, 0x02})
	require.NoError(t, err)
	_, err = srv.Request(context.Background(), req)
	require.ErrorIs(t, err, ExceptionIllegalDataAddress)

	req, err = decodeRequest(rtuAddress{}, 2, []byte{0x03, 0x00, 0x00, 0x00, 0x01})
	require.NoError(t, err)
	_, err = srv.Request(context.Background(), req)
	require.ErrorIs(t, err, ExceptionIllegalFunction)
}
