package modbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeResponse(t *testing.T) {
	testCases := []struct {
		name        string
		fc          FunctionCode
		regAddr     uint16
		qty         uint16
		requestData []byte
		values      []int
		signed      bool
		expect      []byte
	}{
		{"read coils", FunctionReadCoils, 0x13, 10, nil,
			[]int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1}, false,
			[]byte{0x01, 0x02, 0x4D, 0x03}},
		{"read discrete inputs", FunctionReadDiscreteInputs, 0, 3, nil,
			[]int{0, 5, 0}, false,
			[]byte{0x02, 0x01, 0x02}},
		{"read holding unsigned", FunctionReadHoldingRegisters, 0, 2, nil,
			[]int{0xFFFF, 2}, false,
			[]byte{0x03, 0x04, 0xFF, 0xFF, 0x00, 0x02}},
		{"read input signed", FunctionReadInputRegisters, 0, 2, nil,
			[]int{-1, -32768}, true,
			[]byte{0x04, 0x04, 0xFF, 0xFF, 0x80, 0x00}},
		{"write single coil", FunctionWriteSingleCoil, 0xAC, 1, []byte{0xFF, 0x00},
			nil, false,
			[]byte{0x05, 0x00, 0xAC, 0xFF, 0x00}},
		{"write single register", FunctionWriteSingleRegister, 1, 1, []byte{0x12, 0x34},
			nil, false,
			[]byte{0x06, 0x00, 0x01, 0x12, 0x34}},
		{"write multiple coils", FunctionWriteMultipleCoils, 0x13, 10, []byte{0xCD, 0x01},
			nil, false,
			[]byte{0x0F, 0x00, 0x13, 0x00, 0x0A}},
		{"write multiple registers", FunctionWriteMultipleRegisters, 1, 2, nil,
			nil, false,
			[]byte{0x10, 0x00, 0x01, 0x00, 0x02}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pdu, err := EncodeResponse(tc.fc, tc.regAddr, tc.qty,
				tc.requestData, tc.values, tc.signed)
			require.NoError(t, err)
			require.Equal(t, tc.expect, pdu)
		})
	}
}

func TestEncodeResponseErrors(t *testing.T) {
	_, err := EncodeResponse(0x41, 0, 1, nil, nil, false)
	require.ErrorIs(t, err, ErrUnsupportedFunction)
	require.ErrorIs(t, err, ExceptionIllegalFunction)

	_, err = EncodeResponse(FunctionReadHoldingRegisters, 0, 1, nil, []int{-1}, false)
	require.Error(t, err)
	_, err = EncodeResponse(FunctionReadHoldingRegisters, 0, 1, nil, []int{40000}, true)
	require.Error(t, err)
	_, err = EncodeResponse(FunctionReadCoils, 0, 9, nil, []int{1}, false)
	require.Error(t, err)
	_, err = EncodeResponse(FunctionWriteSingleRegister, 0, 1, nil, nil, false)
	require.Error(t, err)
}

func TestEncodeException(t *testing.T) {
	require.Equal(t, []byte{0x83, 0x02},
		EncodeException(FunctionReadHoldingRegisters, ExceptionIllegalDataAddress))
	require.Equal(t, []byte{0xC1, 0x01}, EncodeException(0x41, ExceptionIllegalFunction))
}
