package modbus

import (
	"fmt"
	"time"
)

// DirectionPin drives the direction input (DE/!RE) of a half-duplex
// transceiver. SetTransmit(true) enables the driver, SetTransmit(false)
// returns the transceiver to receive.
type DirectionPin interface {
	SetTransmit(on bool) error
}

// DirectionState is the state of a direction controller.
type DirectionState uint8

// Direction states.
const (
	DirectionIdleReceive DirectionState = iota
	DirectionTransmitting
)

// directionController switches the transceiver around each transmission.
// With DirectionAuto it does nothing.
type directionController struct {
	// pin is the direction pin. Nil with DirectionAuto.
	pin DirectionPin

	// timing holds the character time and settle delays.
	timing TimingProfile

	// state is the current direction state.
	state DirectionState

	// started is the time the first byte of the current transmission was
	// handed to the line.
	started time.Time

	// now and sleep are the clock. Replaced in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// newDirectionController returns a controller for the given timing. The pin
// is ignored unless the timing asks for explicit direction control.
func newDirectionController(
	pin DirectionPin, timing TimingProfile,
) *directionController {
	dc := &directionController{
		timing: timing,
		now:    time.Now,
		sleep:  time.Sleep,
	}
	if timing.Direction == DirectionExplicit {
		dc.pin = pin
	}
	return dc
}

// State returns the current direction state.
func (dc *directionController) State() DirectionState {
	return dc.state
}

// begin switches to Transmitting. With an explicit pin it asserts the pin and
// waits for the pre-delay before returning.
func (dc *directionController) begin() error {
	if dc.pin == nil {
		return nil
	}
	if err := dc.pin.SetTransmit(true); err != nil {
		return fmt.Errorf("assert direction pin: %w", err)
	}
	dc.state = DirectionTransmitting
	dc.sleep(dc.timing.PreDelay)
	dc.started = dc.now()
	return nil
}

// end switches back to Idle-Receive once a frame of n characters has been
// flushed to the line. The pin is released only after the whole frame time
// plus the post-delay has passed since the transmission started.
func (dc *directionController) end(n int) error {
	if dc.pin == nil || dc.state != DirectionTransmitting {
		return nil
	}
	remaining := dc.timing.FrameTime(n) + dc.timing.PostDelay -
		dc.now().Sub(dc.started)
	if remaining > 0 {
		dc.sleep(remaining)
	}
	dc.state = DirectionIdleReceive
	if err := dc.pin.SetTransmit(false); err != nil {
		return fmt.Errorf("release direction pin: %w", err)
	}
	return nil
}

// release returns the transceiver to receive regardless of timing.
func (dc *directionController) release() error {
	if dc.pin == nil {
		return nil
	}
	dc.state = DirectionIdleReceive
	return dc.pin.SetTransmit(false)
}
