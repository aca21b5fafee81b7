package modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// RTU is a Modbus RTU engine on a single half-duplex serial line. It serves
// both roles: as requester (SendReceive) and as responder (GetRequest,
// SendResponse, SendExceptionResponse).
//
// An RTU owns its line and direction pin. It provides no internal locking:
// exactly one exchange may be in flight at a time, and callers driving an
// RTU from several goroutines must serialise access themselves.
type RTU struct {
	// line is the serial line.
	line Line

	// addr describes the line for messages and logs.
	addr rtuAddress

	// timing is the resolved timing contract of the line.
	timing TimingProfile

	// dir switches the transceiver around transmissions.
	dir *directionController

	// responseTimeout is the first-byte timeout of the requester.
	responseTimeout time.Duration

	// closed is set by Close.
	closed bool
}

// NewRTU creates an RTU engine on the given line. The engine takes ownership
// of the line: Close closes it. Options not given take their defaults
// (9600 baud, 8 data bits, 1 stop bit, no parity, automatic direction,
// one second response timeout). The bit rate and frame shape only determine
// the timing; the line itself must already be configured accordingly.
func NewRTU(line Line, opts ...RTUOption) (*RTU, error) {
	if line == nil {
		return nil, errors.New("nil line")
	}
	localOpts, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newRTU(line, "", localOpts)
}

// newRTU assembles an engine from validated options.
func newRTU(line Line, device string, opt *rtuOptions) (*RTU, error) {
	pin := opt.pin
	if opt.useModemLine {
		setter, ok := line.(modemLineSetter)
		if !ok {
			return nil, fmt.Errorf("line has no %s output", opt.modemLine)
		}
		pin = &modemLinePin{setter: setter, line: opt.modemLine}
	}
	timing := opt.timing(pin)
	if opt.directionSet && timing.Direction == DirectionAuto {
		glog.V(1).Infof("%s: direction delays absent, leaving direction "+
			"switching to the transceiver", rtuAddress{device})
	}
	r := &RTU{
		line:            line,
		addr:            rtuAddress{device: device},
		timing:          timing,
		dir:             newDirectionController(pin, timing),
		responseTimeout: opt.responseTimeout,
	}
	if err := r.dir.release(); err != nil {
		return nil, fmt.Errorf("release direction pin: %w", err)
	}
	return r, nil
}

// Timing returns the timing profile of this engine.
func (r *RTU) Timing() TimingProfile {
	return r.timing
}

// Address returns the low-level address of the line.
func (r *RTU) Address() Address {
	return r.addr
}

// Close returns the transceiver to receive and closes the line.
func (r *RTU) Close() error {
	if r.closed {
		return errors.New("already closed")
	}
	r.closed = true
	pinErr := r.dir.release()
	if err := r.line.Close(); err != nil {
		return err
	}
	return pinErr
}

// transmit puts one encoded frame on the line through the direction
// controller. The transceiver is returned to receive on every path.
func (r *RTU) transmit(adu []byte) (err error) {
	if err := r.dir.begin(); err != nil {
		return err
	}
	defer func() {
		if endErr := r.dir.end(len(adu)); endErr != nil && err == nil {
			err = endErr
		}
	}()
	if _, err := r.line.Write(adu); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := r.line.Drain(); err != nil {
		return fmt.Errorf("drain line: %w", err)
	}
	return nil
}

// Send encodes pdu into a frame for unit and transmits it without waiting for
// a reply.
func (r *RTU) Send(unit UnitID, pdu []byte) error {
	if len(pdu) < minPDULen || len(pdu) > maxPDULen {
		if len(pdu) == 0 {
			return errEmptyPDU
		}
		return fmt.Errorf("PDU length %d exceeds %d", len(pdu), maxPDULen)
	}
	return r.transmit(Frame{Unit: unit, PDU: pdu}.Encode())
}

// readFrame reads one frame with the two-stage timeout: up to first for the
// first byte, then up to the inter-frame silence for each further byte.
// Reading stops at the first silent window, when the frame reaches the
// maximum length, or when complete reports a full frame. It returns an
// empty slice if nothing arrived.
func (r *RTU) readFrame(
	first time.Duration, complete func([]byte) bool,
) ([]byte, error) {
	if err := r.line.SetReadTimeout(first); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	frame := make([]byte, 0, maxADULen)
	var chunk [maxADULen]byte
	n, err := r.line.Read(chunk[:1])
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if n == 0 {
		return frame, nil
	}
	frame = append(frame, chunk[:n]...)
	if err := r.line.SetReadTimeout(r.timing.InterFrame); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	for len(frame) < maxADULen {
		if complete != nil && complete(frame) {
			break
		}
		n, err = r.line.Read(chunk[:maxADULen-len(frame)])
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if n == 0 {
			break
		}
		frame = append(frame, chunk[:n]...)
	}
	return frame, nil
}

// SendReceive performs one requester cycle: it flushes stale input, sends pdu
// to unit, reads the response, and returns its payload. The payload excludes
// the address, the function code, the byte count field if count is set, and
// the checksum. Set count for read-style functions.
//
// Errors: ErrNoResponse if nothing (or too little for a frame) came back,
// ErrChecksum, ErrAddressMismatch, ErrUnexpectedFunction for a reply to
// another function, and *ExceptionResponseError.
func (r *RTU) SendReceive(pdu []byte, unit UnitID, count bool) ([]byte, error) {
	if len(pdu) == 0 {
		return nil, errEmptyPDU
	}
	if err := r.line.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("flush line: %w", err)
	}
	if err := r.Send(unit, pdu); err != nil {
		return nil, err
	}
	resp, err := r.readFrame(r.responseTimeout, responseComplete)
	if err != nil {
		return nil, err
	}
	return validateResponse(resp, unit, FunctionCode(pdu[0]), count)
}

// responseComplete reports whether frame already holds a complete response,
// judging by its function code. Function codes of unknown reply shape are
// never complete; their end is detected by silence.
func responseComplete(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	fc := FunctionCode(frame[1])
	switch {
	case fc.IsError():
		return len(frame) >= exceptionADULen
	case fc.IsReadStyle():
		return len(frame) >= 3 && len(frame) >= 3+int(frame[2])+crcLen
	case fc.IsFixedReply():
		return len(frame) >= fixedReplyADULen
	}
	return false
}

// validateResponse checks a captured response to a request for function fc to
// unit and strips its header and checksum.
func validateResponse(
	resp []byte, unit UnitID, fc FunctionCode, count bool,
) ([]byte, error) {
	if len(resp) == 0 {
		return nil, ErrNoResponse
	}
	f, err := DecodeFrame(resp)
	if err != nil {
		return nil, err
	}
	if f.Unit != unit {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrAddressMismatch, f.Unit, unit)
	}
	switch got := f.Function(); {
	case got == fc.AsError():
		if len(f.PDU) < 2 {
			return nil, shortFrameError{len(resp)}
		}
		return nil, &ExceptionResponseError{
			Function:  fc,
			Exception: ExceptionCode(f.PDU[1]),
		}
	case got != fc:
		return nil, fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedFunction, got, fc)
	}
	payload := f.Data()
	if count {
		if len(payload) == 0 {
			return nil, shortFrameError{len(resp)}
		}
		payload = payload[1:]
	}
	return payload, nil
}

// GetRequest waits up to timeout for a request addressed to one of units.
// A zero timeout selects twice the inter-frame silence.
//
// It returns a nil request without error when nothing valid arrived: silence,
// captures shorter than a request, frames for other units, and frames with a
// bad checksum are dropped without reply. Requests that are well-formed but
// cannot be served are answered with an exception response, and also yield
// a nil request. Errors are returned only for line failures.
func (r *RTU) GetRequest(units UnitSet, timeout time.Duration) (*Request, error) {
	if timeout <= 0 {
		timeout = r.timing.RequestTimeout()
	}
	raw, err := r.readFrame(timeout, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) < minRequestADULen {
		if len(raw) > 0 {
			glog.V(2).Infof("%s: dropping %d byte capture", r.addr, len(raw))
		}
		return nil, nil
	}
	unit := UnitID(raw[0])
	if !units.Contains(unit) {
		glog.V(2).Infof("%s: dropping frame for unit %d", r.addr, unit)
		return nil, nil
	}
	f, err := DecodeFrame(raw)
	if err != nil {
		glog.V(2).Infof("%s: dropping frame for unit %d: %s",
			r.addr, unit, err)
		return nil, nil
	}
	req, err := decodeRequest(r.addr, unit, f.PDU)
	if err != nil {
		var pv *ProtocolViolation
		if !errors.As(err, &pv) {
			return nil, err
		}
		if unit.IsBroadcast() {
			glog.V(1).Infof("%s: broadcast %s not answered", r.addr, pv)
			return nil, nil
		}
		glog.V(1).Infof("%s: unit %d: %s", r.addr, unit, pv)
		if err := r.SendExceptionResponse(
			unit, pv.Function, pv.Exception,
		); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return req, nil
}

// SendResponse encodes the reply to a request with EncodeResponse and sends
// it to unit.
func (r *RTU) SendResponse(
	unit UnitID, fc FunctionCode, regAddr, qty uint16,
	requestData []byte, values []int, signed bool,
) error {
	pdu, err := EncodeResponse(fc, regAddr, qty, requestData, values, signed)
	if err != nil {
		return err
	}
	return r.Send(unit, pdu)
}

// SendExceptionResponse sends an exception response for function fc to unit.
func (r *RTU) SendExceptionResponse(
	unit UnitID, fc FunctionCode, ec ExceptionCode,
) error {
	return r.Send(unit, EncodeException(fc, ec))
}
