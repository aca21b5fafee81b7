package modbus

import (
	"encoding/binary"
)

// Request is a decoded request received by a responder. The unit identifier
// has already been matched and the checksum verified. A Request is built per
// inbound frame and owns its data; it does not refer back to the engine.
type Request struct {
	// from is the line the request arrived on.
	from Address

	// unit is the addressed unit.
	unit UnitID

	// pdu is the function code followed by the request data.
	pdu []byte

	// address is the first register or coil addressed by the request.
	address uint16

	// quantity is the number of registers or coils addressed.
	quantity uint16

	// values holds the values to write, as sent on the wire. It is empty for
	// read requests. For single writes it is the two value bytes; for
	// multiple writes it is the data following the byte count.
	values []byte
}

// From returns the low level address the request arrived on.
func (r *Request) From() Address {
	return r.from
}

// UnitID implements ADU.
func (r *Request) UnitID() UnitID {
	return r.unit
}

// Function implements ADU.
func (r *Request) Function() FunctionCode {
	return FunctionCode(r.pdu[0])
}

// Data implements ADU.
func (r *Request) Data() []byte {
	return r.pdu[1:]
}

// RegisterAddress returns the first register or coil address of the request.
func (r *Request) RegisterAddress() uint16 {
	return r.address
}

// Quantity returns the number of registers or coils addressed.
func (r *Request) Quantity() uint16 {
	return r.quantity
}

// Values returns the raw values to write.
func (r *Request) Values() []byte {
	return r.values
}

// Bits returns the coil values to write. For WriteSingleCoil this is a
// single value.
func (r *Request) Bits() []bool {
	if r.Function() == FunctionWriteSingleCoil {
		return []bool{binary.BigEndian.Uint16(r.values) == coilOn}
	}
	return unpackBits(r.values, int(r.quantity))
}

// Words returns the register values to write.
func (r *Request) Words() []uint16 {
	result := make([]uint16, len(r.values)/2)
	for i := range result {
		result[i] = binary.BigEndian.Uint16(r.values[2*i:])
	}
	return result
}

// unpackBits unpacks n bits from packed, least significant bit first.
func unpackBits(packed []byte, n int) []bool {
	result := make([]bool, n)
	for i := range result {
		result[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	return result
}

// packBits packs bits into bytes, least significant bit first. Unused bits of
// the last byte are zero.
func packBits(bits []bool) []byte {
	result := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			result[i/8] |= 1 << (i % 8)
		}
	}
	return result
}
