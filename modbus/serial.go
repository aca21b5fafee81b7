package modbus

import (
	"fmt"

	"go.bug.st/serial"
)

// serialParity maps a parity setting to its go.bug.st/serial value.
func serialParity(p Parity) serial.Parity {
	switch p {
	case ParityEven:
		return serial.EvenParity
	case ParityOdd:
		return serial.OddParity
	}
	return serial.NoParity
}

// serialStopBits maps a number of stop bits to its go.bug.st/serial value.
func serialStopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

// serialMode returns the port mode for the given options. The modem control
// outputs start deasserted, so a transceiver driven by RTS or DTR starts in
// receive.
func serialMode(opt *rtuOptions) *serial.Mode {
	return &serial.Mode{
		BaudRate:          opt.baudRate,
		DataBits:          opt.dataBits,
		Parity:            serialParity(opt.parity),
		StopBits:          serialStopBits(opt.stopBits),
		InitialStatusBits: &serial.ModemOutputBits{},
	}
}

// OpenSerial opens the serial device (e. g., "/dev/ttyUSB0" or "COM3") with
// the configured bit rate and frame shape and returns an RTU engine owning
// it. Use WithModemLineDirection to drive a transceiver from RTS or DTR.
func OpenSerial(device string, opts ...RTUOption) (*RTU, error) {
	localOpts, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(device, serialMode(localOpts))
	if err != nil {
		return nil, fmt.Errorf("open serial device '%s': %w", device, err)
	}
	r, err := newRTU(port, device, localOpts)
	if err != nil {
		port.Close()
		return nil, err
	}
	return r, nil
}
