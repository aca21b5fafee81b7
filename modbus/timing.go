package modbus

import (
	"fmt"
	"time"
)

const (
	// fastBaudThreshold is the highest bit rate at which the inter-frame
	// silence scales with the character time.
	fastBaudThreshold = 19200

	// fastInterFrame is the fixed inter-frame silence above
	// fastBaudThreshold.
	fastInterFrame = 1750 * time.Microsecond
)

// DirectionMode tells who switches the transceiver between receive and
// transmit.
type DirectionMode uint8

// Direction modes.
const (
	// DirectionAuto leaves direction switching to the transceiver or its
	// driver. This includes full-duplex lines.
	DirectionAuto DirectionMode = iota

	// DirectionExplicit drives a direction pin with settle delays before and
	// after each transmission.
	DirectionExplicit
)

// String implements fmt.Stringer.
func (m DirectionMode) String() string {
	switch m {
	case DirectionAuto:
		return "auto"
	case DirectionExplicit:
		return "explicit"
	}
	return fmt.Sprintf("direction mode %d", uint8(m))
}

// NoDelay marks a direction switch delay as absent.
const NoDelay time.Duration = -1

// resolveDirection normalises a direction pin configuration. Explicit control
// needs a pin and both delays. A pin with an absent delay falls back to
// DirectionAuto.
func resolveDirection(pin DirectionPin, pre, post time.Duration) DirectionMode {
	if pin == nil || pre < 0 || post < 0 {
		return DirectionAuto
	}
	return DirectionExplicit
}

// TimingProfile holds the timing contract of a line configuration. It is
// computed once per configuration and never changes afterwards.
type TimingProfile struct {
	// CharTime is the transmission time of one character, truncated to whole
	// microseconds.
	CharTime time.Duration

	// InterFrame is the silence which ends a frame. Byte gaps shorter than
	// this belong to the same frame.
	InterFrame time.Duration

	// Direction tells whether PreDelay and PostDelay are in effect.
	Direction DirectionMode

	// PreDelay is the settle time between asserting the direction pin and
	// the first byte. Only meaningful with DirectionExplicit.
	PreDelay time.Duration

	// PostDelay is added to the frame time before the direction pin is
	// released. Only meaningful with DirectionExplicit.
	PostDelay time.Duration
}

// NewTimingProfile derives the character time and inter-frame silence for a
// line running at baud bits per second with the given frame shape. Every
// character carries a start bit and a parity slot in addition to its data
// and stop bits, so parity does not change the result.
//
// The bit rate must be positive; NewTimingProfile panics otherwise. The
// engine constructors validate it through WithBaudRate.
func NewTimingProfile(baud, dataBits, stopBits int) TimingProfile {
	if baud <= 0 {
		panic(fmt.Sprintf("non-positive baud rate %d", baud))
	}
	charMicros := 1000000 * (dataBits + stopBits + 2) / baud
	tp := TimingProfile{
		CharTime: time.Duration(charMicros) * time.Microsecond,
	}
	if baud <= fastBaudThreshold {
		tp.InterFrame = tp.CharTime * 35 / 10
	} else {
		tp.InterFrame = fastInterFrame
	}
	return tp
}

// FrameTime returns the time needed to put n characters on the line.
func (tp TimingProfile) FrameTime(n int) time.Duration {
	return tp.CharTime * time.Duration(n)
}

// RequestTimeout returns the default time a responder waits for the first
// byte of a request.
func (tp TimingProfile) RequestTimeout() time.Duration {
	return 2 * tp.InterFrame
}

// withDirection returns a copy of this profile with the direction settings
// resolved from pin, pre, and post.
func (tp TimingProfile) withDirection(
	pin DirectionPin, pre, post time.Duration,
) TimingProfile {
	tp.Direction = resolveDirection(pin, pre, post)
	if tp.Direction == DirectionExplicit {
		tp.PreDelay, tp.PostDelay = pre, post
	} else {
		tp.PreDelay, tp.PostDelay = 0, 0
	}
	return tp
}
