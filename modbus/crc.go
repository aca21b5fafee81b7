package modbus

import (
	"github.com/sigurn/crc16"
)

// crcLen is the length of the checksum trailer, in bytes.
const crcLen = 2

// crcTable is the lookup table for the Modbus CRC-16 (reflected polynomial
// 0xA001, initial value 0xFFFF).
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum computes the Modbus CRC-16 over data, which should be the station
// address followed by the PDU. The result is in wire order, low byte first.
func Checksum(data []byte) [crcLen]byte {
	crc := crc16.Checksum(data, crcTable)
	return [crcLen]byte{byte(crc), byte(crc >> 8)}
}

// VerifyChecksum recomputes the checksum over all bytes of frame except the
// trailing two and compares the result with the trailer byte for byte.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < crcLen {
		return false
	}
	want := Checksum(frame[:len(frame)-crcLen])
	return frame[len(frame)-2] == want[0] && frame[len(frame)-1] == want[1]
}

// appendChecksum appends the checksum over dst to dst.
func appendChecksum(dst []byte) []byte {
	crc := Checksum(dst)
	return append(dst, crc[:]...)
}
