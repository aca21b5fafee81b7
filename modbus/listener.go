package modbus

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"
)

// Listener describes a Modbus listener.
type Listener interface {
	// Close stops the listener from accepting new requests. It returns once
	// the exchange in flight, if any, has finished.
	Close() error
}

// Serve answers requests for units on this engine with srv until ctx is
// done or the line fails. Each loop polls for one request, dispatches it,
// and sends the response or an exception. Broadcast requests are executed
// but never answered. Serve returns ctx.Err() after cancellation.
func (r *RTU) Serve(ctx context.Context, srv *Server, units UnitSet) error {
	if srv == nil {
		panic("nil server")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		req, err := r.GetRequest(units, 0)
		if err != nil {
			return err
		}
		if req == nil {
			continue
		}
		if err := r.answer(ctx, srv, req); err != nil {
			return err
		}
	}
}

// answer runs req through srv and sends the reply.
func (r *RTU) answer(ctx context.Context, srv *Server, req *Request) error {
	resp, err := srv.Request(ctx, req)
	if req.UnitID().IsBroadcast() {
		return nil
	}
	if err != nil {
		ec, ok := exceptionFor(err)
		if !ok {
			glog.Errorf("%s: unit %d: %s: %v",
				r.addr, req.UnitID(), req.Function(), err)
		}
		glog.V(1).Infof("%s: unit %d: %s: answering %s",
			r.addr, req.UnitID(), req.Function(), ec)
		return r.SendExceptionResponse(req.UnitID(), req.Function(), ec)
	}
	if resp == nil {
		return nil
	}
	if 1+len(resp) > maxPDULen {
		glog.Errorf("%s: unit %d: %s: %d byte response exceeds PDU",
			r.addr, req.UnitID(), req.Function(), len(resp))
		return r.SendExceptionResponse(
			req.UnitID(), req.Function(), ExceptionServerDeviceFailure)
	}
	pdu := make([]byte, 0, 1+len(resp))
	pdu = append(pdu, byte(req.Function()))
	pdu = append(pdu, resp...)
	return r.Send(req.UnitID(), pdu)
}

// rtuListener runs Serve in the background.
type rtuListener struct {
	// cancel stops the serve loop.
	cancel context.CancelFunc

	// done is closed when the serve loop has returned.
	done chan struct{}

	// closeOnce guards Close.
	closeOnce sync.Once
}

// ListenRTU serves requests for units on r with srv in a background
// goroutine. The listener does not close r; the caller keeps ownership of the
// engine and must not use it until the listener is closed.
func ListenRTU(r *RTU, srv *Server, units UnitSet) (Listener, error) {
	if r == nil {
		return nil, errors.New("nil engine")
	}
	if srv == nil {
		return nil, errors.New("nil server")
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &rtuListener{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(l.done)
		if err := r.Serve(ctx, srv, units); err != nil &&
			!errors.Is(err, context.Canceled) {
			glog.Warningf("%s: serve: %v", r.addr, err)
		}
	}()
	return l, nil
}

// Close stops the serve loop and waits for it to return.
func (l *rtuListener) Close() error {
	err := errors.New("already closed")
	l.closeOnce.Do(func() {
		err = nil
		l.cancel()
		<-l.done
	})
	return err
}
