package modbus

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Client issues data access requests through the requester role of an RTU
// engine. Like the engine, a Client must not be used concurrently.
type Client struct {
	// rtu is the engine requests are sent through.
	rtu *RTU
}

// NewClient returns a client sending requests through r.
func NewClient(r *RTU) *Client {
	return &Client{rtu: r}
}

// wordPairPDU builds a PDU of function code and two big endian words, the
// shape of read requests and single writes.
func wordPairPDU(fc FunctionCode, first, second uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = byte(fc)
	binary.BigEndian.PutUint16(pdu[1:3], first)
	binary.BigEndian.PutUint16(pdu[3:5], second)
	return pdu
}

// checkQuantity validates the quantity of a request for fc.
func checkQuantity(fc FunctionCode, qty, max int) error {
	if qty <= 0 || qty > max {
		return fmt.Errorf("%s: quantity %d not in [1,%d]", fc, qty, max)
	}
	return nil
}

// readBits performs a ReadCoils or ReadDiscreteInputs request.
func (c *Client) readBits(
	fc FunctionCode, unit UnitID, start, qty uint16,
) ([]bool, error) {
	if err := checkQuantity(fc, int(qty), maxReadBits); err != nil {
		return nil, err
	}
	payload, err := c.rtu.SendReceive(wordPairPDU(fc, start, qty), unit, true)
	if err != nil {
		return nil, err
	}
	if len(payload) != (int(qty)+7)/8 {
		return nil, fmt.Errorf("%w: %s: %d bytes for %d bits",
			ErrUnexpectedLength, fc, len(payload), qty)
	}
	return unpackBits(payload, int(qty)), nil
}

// readWords performs a ReadHoldingRegisters or ReadInputRegisters request.
func (c *Client) readWords(
	fc FunctionCode, unit UnitID, start, qty uint16,
) ([]uint16, error) {
	if err := checkQuantity(fc, int(qty), maxReadWords); err != nil {
		return nil, err
	}
	payload, err := c.rtu.SendReceive(wordPairPDU(fc, start, qty), unit, true)
	if err != nil {
		return nil, err
	}
	if len(payload) != 2*int(qty) {
		return nil, fmt.Errorf("%w: %s: %d bytes for %d registers",
			ErrUnexpectedLength, fc, len(payload), qty)
	}
	result := make([]uint16, qty)
	for i := range result {
		result[i] = binary.BigEndian.Uint16(payload[2*i:])
	}
	return result, nil
}

// ReadCoils reads qty coils of unit from start.
func (c *Client) ReadCoils(unit UnitID, start, qty uint16) ([]bool, error) {
	return c.readBits(FunctionReadCoils, unit, start, qty)
}

// ReadDiscreteInputs reads qty discrete inputs of unit from start.
func (c *Client) ReadDiscreteInputs(unit UnitID, start, qty uint16) ([]bool, error) {
	return c.readBits(FunctionReadDiscreteInputs, unit, start, qty)
}

// ReadHoldingRegisters reads qty holding registers of unit from start.
func (c *Client) ReadHoldingRegisters(unit UnitID, start, qty uint16) ([]uint16, error) {
	return c.readWords(FunctionReadHoldingRegisters, unit, start, qty)
}

// ReadInputRegisters reads qty input registers of unit from start.
func (c *Client) ReadInputRegisters(unit UnitID, start, qty uint16) ([]uint16, error) {
	return c.readWords(FunctionReadInputRegisters, unit, start, qty)
}

// write sends a write request. Broadcasts return after transmission. Other
// requests wait for the reply and compare it with want.
func (c *Client) write(unit UnitID, pdu, want []byte) error {
	if unit.IsBroadcast() {
		return c.rtu.Send(unit, pdu)
	}
	payload, err := c.rtu.SendReceive(pdu, unit, false)
	if err != nil {
		return err
	}
	if !bytes.Equal(payload, want) {
		return fmt.Errorf("%w: %s: got % X, want % X",
			ErrBadEcho, FunctionCode(pdu[0]), payload, want)
	}
	return nil
}

// WriteSingleCoil sets the coil at addr of unit.
func (c *Client) WriteSingleCoil(unit UnitID, addr uint16, on bool) error {
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	pdu := wordPairPDU(FunctionWriteSingleCoil, addr, value)
	return c.write(unit, pdu, pdu[1:])
}

// WriteSingleRegister sets the holding register at addr of unit.
func (c *Client) WriteSingleRegister(unit UnitID, addr, value uint16) error {
	pdu := wordPairPDU(FunctionWriteSingleRegister, addr, value)
	return c.write(unit, pdu, pdu[1:])
}

// WriteMultipleCoils sets len(values) coils of unit from start.
func (c *Client) WriteMultipleCoils(unit UnitID, start uint16, values []bool) error {
	fc := FunctionWriteMultipleCoils
	if err := checkQuantity(fc, len(values), maxWriteBits); err != nil {
		return err
	}
	packed := packBits(values)
	pdu := wordPairPDU(fc, start, uint16(len(values)))
	pdu = append(pdu, byte(len(packed)))
	pdu = append(pdu, packed...)
	return c.write(unit, pdu, pdu[1:5])
}

// WriteMultipleRegisters sets len(values) holding registers of unit from
// start.
func (c *Client) WriteMultipleRegisters(unit UnitID, start uint16, values []uint16) error {
	fc := FunctionWriteMultipleRegisters
	if err := checkQuantity(fc, len(values), maxWriteWords); err != nil {
		return err
	}
	pdu := wordPairPDU(fc, start, uint16(len(values)))
	pdu = append(pdu, byte(2*len(values)))
	for _, v := range values {
		pdu = append(pdu, byte(v>>8), byte(v))
	}
	return c.write(unit, pdu, pdu[1:5])
}
