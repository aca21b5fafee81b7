package modbus

import (
	"errors"
)

// Frame is a serial line application data unit: the station address and the
// PDU. The checksum is computed by Encode and verified by DecodeFrame, so a
// Frame value always describes checksum-valid content.
//
// Frames are values. Encode and DecodeFrame never alias the caller's buffer.
type Frame struct {
	// Unit is the station address.
	Unit UnitID

	// PDU is the function code followed by the function data.
	PDU []byte
}

// UnitID implements ADU.
func (f Frame) UnitID() UnitID {
	return f.Unit
}

// Function implements ADU. It returns zero for an empty PDU.
func (f Frame) Function() FunctionCode {
	if len(f.PDU) == 0 {
		return 0
	}
	return FunctionCode(f.PDU[0])
}

// Data implements ADU.
func (f Frame) Data() []byte {
	if len(f.PDU) == 0 {
		return nil
	}
	return f.PDU[1:]
}

// Encode returns the wire representation of this frame: address, PDU, and
// the CRC-16 over both, low byte first.
func (f Frame) Encode() []byte {
	adu := make([]byte, 0, 1+len(f.PDU)+crcLen)
	adu = append(adu, byte(f.Unit))
	adu = append(adu, f.PDU...)
	return appendChecksum(adu)
}

// DecodeFrame verifies the checksum of the raw frame and returns its
// contents. The returned frame owns a copy of the PDU.
func DecodeFrame(raw []byte) (Frame, error) {
	if len(raw) < minADULen {
		return Frame{}, shortFrameError{len(raw)}
	}
	if !VerifyChecksum(raw) {
		return Frame{}, ErrChecksum
	}
	pdu := make([]byte, len(raw)-1-crcLen)
	copy(pdu, raw[1:])
	return Frame{Unit: UnitID(raw[0]), PDU: pdu}, nil
}

// errEmptyPDU is returned when a frame without function code is sent.
var errEmptyPDU = errors.New("empty PDU")
