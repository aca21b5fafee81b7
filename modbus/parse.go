package modbus

import (
	"encoding/binary"
)

const (
	// maxReadBits is the maximum number of bits which can be read in a single
	// ReadCoils or ReadDiscreteInputs request.
	maxReadBits = 2000

	// maxWriteBits is the maximum number of bits which can be written in a
	// single WriteMultipleCoils request.
	maxWriteBits = 1968

	// maxReadWords is the maximum number of words which can be read in a single
	// ReadHoldingRegisters or ReadInputRegisters request.
	maxReadWords = 125

	// maxWriteWords is the maximum number of words which can be written in a
	// single WriteMultipleRegisters request.
	maxWriteWords = 123

	// coilOn and coilOff are the only valid values of a WriteSingleCoil
	// request.
	coilOn  = 0xFF00
	coilOff = 0x0000
)

// decodeRequest decodes the PDU of a checksum-valid frame for unit. Requests
// which cannot be served yield a *ProtocolViolation carrying the exception
// code to answer with.
func decodeRequest(from Address, unit UnitID, pdu []byte) (*Request, error) {
	fc := FunctionCode(pdu[0])
	req := &Request{
		from: from,
		unit: unit,
		pdu:  make([]byte, len(pdu)),
	}
	copy(req.pdu, pdu)
	data := req.pdu[1:]
	var err error
	switch fc {
	case FunctionReadCoils, FunctionReadDiscreteInputs:
		err = req.parseRead(data, maxReadBits)
	case FunctionReadHoldingRegisters, FunctionReadInputRegisters:
		err = req.parseRead(data, maxReadWords)
	case FunctionWriteSingleCoil:
		err = req.parseWriteSingle(data)
		if err == nil {
			if v := binary.BigEndian.Uint16(req.values); v != coilOn && v != coilOff {
				err = ExceptionIllegalDataValue
			}
		}
	case FunctionWriteSingleRegister:
		err = req.parseWriteSingle(data)
	case FunctionWriteMultipleCoils:
		err = req.parseWriteMultipleCoils(data)
	case FunctionWriteMultipleRegisters:
		err = req.parseWriteMultipleRegisters(data)
	default:
		err = ExceptionIllegalFunction
	}
	if err != nil {
		return nil, violation(fc, err)
	}
	return req, nil
}

// parseRead parses a read request with the common 4-byte structure (2 bytes
// start address, 2 bytes number of values to read).
func (r *Request) parseRead(data []byte, maxNumValues int) error {
	if len(data) != 4 {
		return ExceptionIllegalDataValue
	}
	r.address = binary.BigEndian.Uint16(data[0:2])
	r.quantity = binary.BigEndian.Uint16(data[2:4])
	if r.quantity == 0 || int(r.quantity) > maxNumValues {
		return ExceptionIllegalDataValue
	}
	if int(r.address)+int(r.quantity) > 1<<16 {
		return ExceptionIllegalDataAddress
	}
	return nil
}

// parseWriteSingle parses a WriteSingleCoil or WriteSingleRegister request:
// 2 bytes address, 2 bytes value.
func (r *Request) parseWriteSingle(data []byte) error {
	if len(data) != 4 {
		return ExceptionIllegalDataValue
	}
	r.address = binary.BigEndian.Uint16(data[0:2])
	r.quantity = 1
	r.values = data[2:4]
	return nil
}

// parseWriteMultipleCoils parses a WriteMultipleCoils request. The values are
// packed 8 to a byte, lower addresses in less significant bits; unused bits
// of the last byte must be zero.
func (r *Request) parseWriteMultipleCoils(data []byte) error {
	if len(data) < 5 {
		return ExceptionIllegalDataValue
	}
	r.address = binary.BigEndian.Uint16(data[0:2])
	r.quantity = binary.BigEndian.Uint16(data[2:4])
	n := int(r.quantity)
	numBytes := (n + 7) / 8
	if n == 0 || n > maxWriteBits ||
		numBytes != int(data[4]) || len(data)-5 != numBytes {
		return ExceptionIllegalDataValue
	}
	if rest := n % 8; rest != 0 && data[len(data)-1]>>rest != 0 {
		return ExceptionIllegalDataValue
	}
	if int(r.address)+n > 1<<16 {
		return ExceptionIllegalDataAddress
	}
	r.values = data[5:]
	return nil
}

// parseWriteMultipleRegisters parses a WriteMultipleRegisters request. The
// values are big endian words.
func (r *Request) parseWriteMultipleRegisters(data []byte) error {
	if len(data) < 5 {
		return ExceptionIllegalDataValue
	}
	r.address = binary.BigEndian.Uint16(data[0:2])
	r.quantity = binary.BigEndian.Uint16(data[2:4])
	n := int(r.quantity)
	numBytes := int(data[4])
	if n == 0 || n > maxWriteWords ||
		2*n != numBytes || len(data)-5 != numBytes {
		return ExceptionIllegalDataValue
	}
	if int(r.address)+n > 1<<16 {
		return ExceptionIllegalDataAddress
	}
	r.values = data[5:]
	return nil
}
