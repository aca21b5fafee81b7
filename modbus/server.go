package modbus

import (
	"context"
	"fmt"
	"sync"
)

// handlerKey selects a function handler.
type handlerKey struct {
	unit     UnitID
	function FunctionCode
}

// FunctionHandler handles one decoded request. It returns the response data
// without the function code. On error, the returned error should normally be
// an ExceptionCode; any other error is answered with
// ExceptionServerDeviceFailure. A nil response with a nil error suppresses
// the reply.
//
// Handlers run on the goroutine serving the line. Handlers shared between
// several lines must protect their state themselves.
type FunctionHandler func(
	ctx context.Context, req *Request, srv *Server,
) ([]byte, error)

// Server dispatches decoded requests to function handlers by unit and
// function code.
type Server struct {
	// mx protects the handler tables.
	mx sync.RWMutex

	// handlers maps unit and function code to their handler.
	handlers map[handlerKey]FunctionHandler

	// units counts the handlers registered per unit.
	units [256]int

	// fallback handles requests without a specific handler.
	fallback FunctionHandler
}

// illegalFunction is the initial fallback handler.
func illegalFunction(context.Context, *Request, *Server) ([]byte, error) {
	return nil, ExceptionIllegalFunction
}

// NewServer returns a new server. Initially, every request is answered with
// ExceptionIllegalFunction.
func NewServer() *Server {
	return &Server{
		handlers: make(map[handlerKey]FunctionHandler),
		fallback: illegalFunction,
	}
}

// SetFallbackFunctionHandler sets the handler for requests without a
// specific handler. A nil handler restores the default, which returns
// ExceptionIllegalFunction.
func (s *Server) SetFallbackFunctionHandler(h FunctionHandler) {
	if h == nil {
		h = illegalFunction
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	s.fallback = h
}

// SetFunctionHandler sets h as handler for unit and the given functions.
// A nil handler deletes the existing handlers instead.
//
// The unit must be a serial line address (broadcast or 1 to 247), function
// codes must not carry the exception bias, and a unit/function combination
// can only have one handler at a time.
func (s *Server) SetFunctionHandler(
	h FunctionHandler, unit UnitID, functions ...FunctionCode,
) error {
	if !unit.IsValid() {
		return fmt.Errorf("unit %d is not a serial line address", unit)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if h == nil {
		for _, fc := range functions {
			key := handlerKey{unit, fc}
			if s.handlers[key] != nil {
				delete(s.handlers, key)
				s.units[unit]--
			}
		}
		return nil
	}
	for _, fc := range functions {
		if fc.IsError() {
			return fmt.Errorf("%s: exception function code not permitted", fc)
		}
		if s.handlers[handlerKey{unit, fc}] != nil {
			return fmt.Errorf("unit %d: handler for %s already present", unit, fc)
		}
	}
	for _, fc := range functions {
		key := handlerKey{unit, fc}
		if s.handlers[key] == nil {
			s.units[unit]++
		}
		s.handlers[key] = h
	}
	return nil
}

// Units returns the units with at least one specific handler, the set a
// responder serving this server should answer to.
func (s *Server) Units() UnitSet {
	s.mx.RLock()
	defer s.mx.RUnlock()
	var result UnitSet
	for unit, n := range s.units {
		if n > 0 {
			result = result.With(UnitID(unit))
		}
	}
	return result
}

// Request dispatches req to its handler and returns the response data
// without the function code.
func (s *Server) Request(ctx context.Context, req *Request) ([]byte, error) {
	if req == nil {
		panic("nil request")
	}
	s.mx.RLock()
	h := s.handlers[handlerKey{req.UnitID(), req.Function()}]
	if h == nil {
		h = s.fallback
	}
	s.mx.RUnlock()
	return h(ctx, req, s)
}
