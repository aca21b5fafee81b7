package modbus

import (
	"errors"
	"fmt"
	"time"
)

const (
	// defaultBaudRate is the bit rate used without WithBaudRate.
	defaultBaudRate = 9600

	// defaultDataBits is the character size used without WithDataBits.
	defaultDataBits = 8

	// defaultStopBits is the number of stop bits used without WithStopBits.
	defaultStopBits = 1

	// defaultResponseTimeout is the time a requester waits for the first byte
	// of a response.
	defaultResponseTimeout = time.Second
)

// Parity describes the parity setting of a serial line.
type Parity uint8

// Parity settings.
const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// String implements fmt.Stringer.
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	}
	return fmt.Sprintf("parity %d", uint8(p))
}

// ParseParity parses "none", "even", or "odd". The empty string means none.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "", "none", "N":
		return ParityNone, nil
	case "even", "E":
		return ParityEven, nil
	case "odd", "O":
		return ParityOdd, nil
	}
	return 0, fmt.Errorf("unknown parity %q", s)
}

// rtuOptions describes options for RTU engines.
type rtuOptions struct {
	// baudRate is the line bit rate.
	baudRate int

	// dataBits is the number of data bits per character.
	dataBits int

	// stopBits is the number of stop bits per character.
	stopBits int

	// parity is the parity setting. Parity has no separate flag for "set",
	// so duplicate WithParity calls are tracked by paritySet.
	parity    Parity
	paritySet bool

	// pin is an explicit direction pin. Mutually exclusive with modemLine.
	pin DirectionPin

	// modemLine selects a modem control output of the line as direction pin
	// if useModemLine is set.
	modemLine    ModemLine
	useModemLine bool

	// directionSet records that a direction option was given.
	directionSet bool

	// preDelay and postDelay are the direction switch delays. Negative
	// means absent.
	preDelay, postDelay time.Duration

	// responseTimeout is the first-byte timeout of the requester.
	responseTimeout time.Duration
}

// Validate performs cursory validation of these RTU options.
// It also fills in default values where appropriate.
func (opt *rtuOptions) Validate() error {
	if opt.baudRate == 0 {
		opt.baudRate = defaultBaudRate
	}
	if opt.dataBits == 0 {
		opt.dataBits = defaultDataBits
	}
	if opt.stopBits == 0 {
		opt.stopBits = defaultStopBits
	}
	if opt.responseTimeout == 0 {
		opt.responseTimeout = defaultResponseTimeout
	}
	if !opt.directionSet {
		opt.preDelay, opt.postDelay = NoDelay, NoDelay
	}
	return nil
}

// timing returns the timing profile for these options. The direction pin
// argument is the pin the engine will actually drive, if any.
func (opt *rtuOptions) timing(pin DirectionPin) TimingProfile {
	return NewTimingProfile(opt.baudRate, opt.dataBits, opt.stopBits).
		withDirection(pin, opt.preDelay, opt.postDelay)
}

// RTUOption describes an option to be passed to NewRTU or OpenSerial.
type RTUOption func(*rtuOptions) error

// WithBaudRate selects the line bit rate. The default is 9600.
func WithBaudRate(baud int) RTUOption {
	return func(opt *rtuOptions) error {
		if baud <= 0 {
			return fmt.Errorf("baud rate must be positive, got %d", baud)
		}
		if opt.baudRate != 0 {
			return errors.New("WithBaudRate specified multiple times")
		}
		opt.baudRate = baud
		return nil
	}
}

// WithDataBits selects the number of data bits per character, 5 to 8.
// The default is 8.
func WithDataBits(bits int) RTUOption {
	return func(opt *rtuOptions) error {
		if bits < 5 || bits > 8 {
			return fmt.Errorf("data bits must be in [5,8], got %d", bits)
		}
		if opt.dataBits != 0 {
			return errors.New("WithDataBits specified multiple times")
		}
		opt.dataBits = bits
		return nil
	}
}

// WithStopBits selects one or two stop bits. The default is one.
func WithStopBits(bits int) RTUOption {
	return func(opt *rtuOptions) error {
		if bits != 1 && bits != 2 {
			return fmt.Errorf("stop bits must be 1 or 2, got %d", bits)
		}
		if opt.stopBits != 0 {
			return errors.New("WithStopBits specified multiple times")
		}
		opt.stopBits = bits
		return nil
	}
}

// WithParity selects the parity setting. The default is no parity.
func WithParity(p Parity) RTUOption {
	return func(opt *rtuOptions) error {
		if p > ParityOdd {
			return fmt.Errorf("unknown parity %d", p)
		}
		if opt.paritySet {
			return errors.New("WithParity specified multiple times")
		}
		opt.parity, opt.paritySet = p, true
		return nil
	}
}

// WithDirectionControl drives the given pin around every transmission.
// The pin is asserted pre before the first byte and released post after
// the frame time of the last byte has elapsed. If either delay is NoDelay
// (or negative), the pin is not used and direction switching is left to the
// transceiver driver.
func WithDirectionControl(pin DirectionPin, pre, post time.Duration) RTUOption {
	return func(opt *rtuOptions) error {
		if pin == nil {
			return errors.New("nil direction pin")
		}
		if opt.directionSet {
			return errors.New("direction control specified multiple times")
		}
		opt.pin, opt.directionSet = pin, true
		opt.preDelay, opt.postDelay = pre, post
		return nil
	}
}

// WithModemLineDirection is like WithDirectionControl, but uses a modem
// control output (RTS or DTR) of the line as direction pin. The line must
// provide SetRTS and SetDTR methods.
func WithModemLineDirection(ml ModemLine, pre, post time.Duration) RTUOption {
	return func(opt *rtuOptions) error {
		if ml > ModemLineDTR {
			return fmt.Errorf("unknown modem line %d", ml)
		}
		if opt.directionSet {
			return errors.New("direction control specified multiple times")
		}
		opt.modemLine, opt.useModemLine, opt.directionSet = ml, true, true
		opt.preDelay, opt.postDelay = pre, post
		return nil
	}
}

// WithResponseTimeout selects how long a requester waits for the first byte
// of a response. The default is one second.
func WithResponseTimeout(timeout time.Duration) RTUOption {
	return func(opt *rtuOptions) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		if opt.responseTimeout != 0 {
			return errors.New("WithResponseTimeout specified multiple times")
		}
		opt.responseTimeout = timeout
		return nil
	}
}

// buildOptions applies opts to a fresh option set and validates it.
func buildOptions(opts []RTUOption) (*rtuOptions, error) {
	localOpts := &rtuOptions{}
	for _, opt := range opts {
		if err := opt(localOpts); err != nil {
			return nil, err
		}
	}
	if err := localOpts.Validate(); err != nil {
		return nil, err
	}
	return localOpts, nil
}
