package modbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestRead(t *testing.T) {
	from := rtuAddress{device: "/dev/ttyS0"}
	req, err := decodeRequest(from, 7, []byte{0x03, 0x00, 0x10, 0x00, 0x04})
	require.NoError(t, err)
	assert.Equal(t, from, req.From())
	assert.Equal(t, UnitID(7), req.UnitID())
	assert.Equal(t, FunctionReadHoldingRegisters, req.Function())
	assert.Equal(t, uint16(0x10), req.RegisterAddress())
	assert.Equal(t, uint16(4), req.Quantity())
	assert.Equal(t, []byte{0x00, 0x10, 0x00, 0x04}, req.Data())
	assert.Empty(t, req.Values())
}

func TestDecodeRequestWrites(t *testing.T) {
	req, err := decodeRequest(rtuAddress{}, 1, []byte{0x05, 0x00, 0x02, 0xFF, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, req.Bits())
	assert.Equal(t, uint16(1), req.Quantity())

	req, err = decodeRequest(rtuAddress{}, 1, []byte{0x06, 0x00, 0x02, 0x12, 0x34})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234}, req.Words())
	assert.Equal(t, []byte{0x12, 0x34}, req.Values())

	req, err = decodeRequest(rtuAddress{}, 1,
		[]byte{0x0F, 0x00, 0x13, 0x00, 0x0A, 0x02, 0xCD, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x13), req.RegisterAddress())
	assert.Equal(t, []bool{
		true, false, true, true, false, false, true, true,
		true, false,
	}, req.Bits())

	req, err = decodeRequest(rtuAddress{}, 1,
		[]byte{0x10, 0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x000A, 0x0102}, req.Words())
}

func TestDecodeRequestViolations(t *testing.T) {
	testCases := []struct {
		name   string
		pdu    []byte
		expect ExceptionCode
	}{
		{"unknown function", []byte{0x41, 0x00, 0x00, 0x00, 0x01}, ExceptionIllegalFunction},
		{"zero quantity", []byte{0x03, 0x00, 0x00, 0x00, 0x00}, ExceptionIllegalDataValue},
		{"too many registers", []byte{0x04, 0x00, 0x00, 0x00, 0x7E}, ExceptionIllegalDataValue},
		{"too many coils", []byte{0x01, 0x00, 0x00, 0x07, 0xD1}, ExceptionIllegalDataValue},
		{"address overflow", []byte{0x03, 0xFF, 0xFF, 0x00, 0x02}, ExceptionIllegalDataAddress},
		{"extra read bytes", []byte{0x03, 0x00, 0x00, 0x00, 0x01, 0x00}, ExceptionIllegalDataValue},
		{"bad coil value", []byte{0x05, 0x00, 0x00, 0x12, 0x34}, ExceptionIllegalDataValue},
		{"coil byte count", []byte{0x0F, 0x00, 0x00, 0x00, 0x09, 0x01, 0xFF}, ExceptionIllegalDataValue},
		{"coil padding", []byte{0x0F, 0x00, 0x00, 0x00, 0x04, 0x01, 0x1F}, ExceptionIllegalDataValue},
		{"register byte count", []byte{0x10, 0x00, 0x00, 0x00, 0x02, 0x02, 0x00, 0x01}, ExceptionIllegalDataValue},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeRequest(rtuAddress{}, 1, tc.pdu)
			var pv *ProtocolViolation
			require.True(t, errors.As(err, &pv), "got %v", err)
			assert.Equal(t, FunctionCode(tc.pdu[0]), pv.Function)
			assert.Equal(t, tc.expect, pv.Exception)
			assert.ErrorIs(t, err, tc.expect)
			assert.Equal(t, tc.expect == ExceptionIllegalFunction,
				errors.Is(err, ErrUnsupportedFunction))
		})
	}
}

func TestPackBits(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, true, false, true, true}
	packed := packBits(bits)
	require.Equal(t, []byte{0x4D, 0x03}, packed)
	require.Equal(t, bits, unpackBits(packed, len(bits)))
	require.Empty(t, packBits(nil))
}
