package modbus

// Address describes a Modbus low-level address.
type Address interface {
	// Protocol returns the low-level protocol associated with the address,
	// "rtu" for serial lines.
	Protocol() string

	// String returns a string representation of the address.
	String() string
}

// rtuAddress describes the serial line a message travelled on.
type rtuAddress struct {
	// device is the name of the serial device, e. g., "/dev/ttyUSB0". It may
	// be empty for lines not backed by a device.
	device string
}

// Protocol implements Address.
func (addr rtuAddress) Protocol() string {
	return "rtu"
}

// String implements Address.
func (addr rtuAddress) String() string {
	if addr.device == "" {
		return "rtu://line"
	}
	return "rtu://" + addr.device
}
