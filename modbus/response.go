package modbus

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeResponse formats the response PDU to a request for function fc:
//
//   - read coils and discrete inputs: byte count, then qty bits of values
//     (non-zero is on) packed least significant bit first;
//   - read holding and input registers: byte count, then each value as a
//     big endian word, two's complement if signed;
//   - write single coil and register: the echoed address and requestData,
//     the two value bytes of the request;
//   - write multiple coils and registers: the echoed address and qty.
//
// Other function codes yield a protocol violation matching
// ErrUnsupportedFunction.
func EncodeResponse(
	fc FunctionCode, regAddr, qty uint16,
	requestData []byte, values []int, signed bool,
) ([]byte, error) {
	data, err := encodeResponseData(fc, regAddr, qty, requestData, values, signed)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(fc)}, data...), nil
}

// encodeResponseData is EncodeResponse without the leading function code.
func encodeResponseData(
	fc FunctionCode, regAddr, qty uint16,
	requestData []byte, values []int, signed bool,
) ([]byte, error) {
	switch fc {
	case FunctionReadCoils, FunctionReadDiscreteInputs:
		if len(values) < int(qty) {
			return nil, fmt.Errorf("%s: %d values for %d bits",
				fc, len(values), qty)
		}
		bits := make([]bool, qty)
		for i := range bits {
			bits[i] = values[i] != 0
		}
		packed := packBits(bits)
		return append([]byte{byte(len(packed))}, packed...), nil
	case FunctionReadHoldingRegisters, FunctionReadInputRegisters:
		if 2*len(values) > maxPDULen-2 {
			return nil, fmt.Errorf("%s: %d values exceed PDU", fc, len(values))
		}
		data := make([]byte, 1+2*len(values))
		data[0] = byte(2 * len(values))
		for i, v := range values {
			word, err := encodeWord(v, signed)
			if err != nil {
				return nil, fmt.Errorf("%s: value %d: %w", fc, i, err)
			}
			binary.BigEndian.PutUint16(data[1+2*i:], word)
		}
		return data, nil
	case FunctionWriteSingleCoil, FunctionWriteSingleRegister:
		if len(requestData) < 2 {
			return nil, fmt.Errorf("%s: missing request value", fc)
		}
		data := make([]byte, 4)
		binary.BigEndian.PutUint16(data[0:2], regAddr)
		copy(data[2:4], requestData[:2])
		return data, nil
	case FunctionWriteMultipleCoils, FunctionWriteMultipleRegisters:
		data := make([]byte, 4)
		binary.BigEndian.PutUint16(data[0:2], regAddr)
		binary.BigEndian.PutUint16(data[2:4], qty)
		return data, nil
	}
	return nil, &ProtocolViolation{Function: fc, Exception: ExceptionIllegalFunction}
}

// encodeWord converts v into a register word.
func encodeWord(v int, signed bool) (uint16, error) {
	if signed {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return 0, fmt.Errorf("%d out of int16 range", v)
		}
		return uint16(int16(v)), nil
	}
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%d out of uint16 range", v)
	}
	return uint16(v), nil
}

// EncodeException formats an exception response PDU for function fc.
func EncodeException(fc FunctionCode, ec ExceptionCode) []byte {
	return []byte{byte(fc.AsError()), byte(ec)}
}
