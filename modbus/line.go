package modbus

import (
	"fmt"
	"io"
	"time"
)

// Line describes the serial line driven by an RTU engine. The Port type of
// go.bug.st/serial satisfies this interface.
//
// Read must block until at least one byte is available or the read timeout
// expires, and return zero bytes and a nil error on timeout.
type Line interface {
	io.ReadWriter

	// SetReadTimeout sets the timeout for subsequent reads.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error

	// Drain blocks until all written bytes have left the transmitter.
	Drain() error

	// Close releases the line.
	Close() error
}

// ModemLine selects a modem control output used as direction pin.
type ModemLine uint8

// Modem control outputs.
const (
	ModemLineRTS ModemLine = iota
	ModemLineDTR
)

// String implements fmt.Stringer.
func (ml ModemLine) String() string {
	switch ml {
	case ModemLineRTS:
		return "rts"
	case ModemLineDTR:
		return "dtr"
	}
	return fmt.Sprintf("modem line %d", uint8(ml))
}

// ParseModemLine parses "rts" or "dtr".
func ParseModemLine(s string) (ModemLine, error) {
	switch s {
	case "rts", "RTS":
		return ModemLineRTS, nil
	case "dtr", "DTR":
		return ModemLineDTR, nil
	}
	return 0, fmt.Errorf("unknown modem line %q", s)
}

// modemLineSetter is implemented by lines with modem control outputs.
type modemLineSetter interface {
	SetRTS(bool) error
	SetDTR(bool) error
}

// modemLinePin drives the direction input of a transceiver through a modem
// control output of the line itself.
type modemLinePin struct {
	// setter is the line owning the output.
	setter modemLineSetter

	// line selects the output.
	line ModemLine
}

// SetTransmit implements DirectionPin.
func (p *modemLinePin) SetTransmit(on bool) error {
	if p.line == ModemLineDTR {
		return p.setter.SetDTR(on)
	}
	return p.setter.SetRTS(on)
}
