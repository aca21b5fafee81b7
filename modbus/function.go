package modbus

import (
	"fmt"
)

// FunctionCode describes a Modbus function code.
type FunctionCode uint8

// Function code constants for the data access functions served over the
// serial line.
const (
	FunctionReadCoils              FunctionCode = 1
	FunctionReadDiscreteInputs     FunctionCode = 2
	FunctionReadHoldingRegisters   FunctionCode = 3
	FunctionReadInputRegisters     FunctionCode = 4
	FunctionWriteSingleCoil        FunctionCode = 5
	FunctionWriteSingleRegister    FunctionCode = 6
	FunctionWriteMultipleCoils     FunctionCode = 15
	FunctionWriteMultipleRegisters FunctionCode = 16
)

// FunctionError is the exception bias: the bit added to a function code in a
// response to signal that the following byte is an exception code.
const FunctionError FunctionCode = 0x80

// functionNames maps the supported function codes to their names.
var functionNames = map[FunctionCode]string{
	FunctionReadCoils:              "read coils",
	FunctionReadDiscreteInputs:     "read discrete inputs",
	FunctionReadHoldingRegisters:   "read holding registers",
	FunctionReadInputRegisters:     "read input registers",
	FunctionWriteSingleCoil:        "write single coil",
	FunctionWriteSingleRegister:    "write single register",
	FunctionWriteMultipleCoils:     "write multiple coils",
	FunctionWriteMultipleRegisters: "write multiple registers",
}

// String returns the name of this function code.
func (fc FunctionCode) String() string {
	name, ok := functionNames[fc&^FunctionError]
	if !ok {
		name = fmt.Sprintf("function %d", uint8(fc&^FunctionError))
	}
	if fc.IsError() {
		name += " (exception)"
	}
	return name
}

// IsKnown reports whether this function code is served by this package.
func (fc FunctionCode) IsKnown() bool {
	_, ok := functionNames[fc]
	return ok
}

// IsReadStyle reports whether the reply to this function carries a byte
// count field in front of its data.
func (fc FunctionCode) IsReadStyle() bool {
	return fc >= FunctionReadCoils && fc <= FunctionReadInputRegisters
}

// IsFixedReply reports whether the reply to this function has the fixed
// echo shape: address and value (or quantity), two bytes each.
func (fc FunctionCode) IsFixedReply() bool {
	switch fc {
	case FunctionWriteSingleCoil, FunctionWriteSingleRegister,
		FunctionWriteMultipleCoils, FunctionWriteMultipleRegisters:
		return true
	}
	return false
}

// IsError determines whether this function code is from an error
// response.
func (fc FunctionCode) IsError() bool {
	return fc&FunctionError != 0
}

// AsError returns this function code with the error response bit set.
func (fc FunctionCode) AsError() FunctionCode {
	return fc | FunctionError
}
