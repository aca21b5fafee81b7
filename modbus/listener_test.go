package modbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newServedRegisters(t *testing.T, units ...UnitID) (*Server, *Registers) {
	t.Helper()
	regs, err := NewRegisters(
		DataRange{DataTypeHoldingRegisters, 0, 16},
		DataRange{DataTypeCoils, 0, 16},
	)
	require.NoError(t, err)
	srv := NewServer()
	for _, unit := range units {
		require.NoError(t, regs.AddToServer(srv, unit))
	}
	return srv, regs
}

func TestListenRTU(t *testing.T) {
	r, line := newTestRTU(t)
	srv, regs := newServedRegisters(t, 100)
	require.NoError(t, regs.Set(DataTypeHoldingRegisters, 2, 0x1234, 0x5678))

	l, err := ListenRTU(r, srv, NewUnitSet(100))
	require.NoError(t, err)
	line.push(frame(100, 0x03, 0x00, 0x02, 0x00, 0x02))
	require.Eventually(t, func() bool {
		return len(line.written()) == 1
	}, time.Second, time.Millisecond)
	require.NoError(t, l.Close())
	require.Error(t, l.Close())

	require.Equal(t, frame(100, 0x03, 0x04, 0x12, 0x34, 0x56, 0x78), line.written()[0])
}

func TestListenRTUNilArguments(t *testing.T) {
	r, _ := newTestRTU(t)
	_, err := ListenRTU(nil, NewServer(), NewUnitSet(1))
	require.Error(t, err)
	_, err = ListenRTU(r, nil, NewUnitSet(1))
	require.Error(t, err)
}

func TestServeSurvivesOversizedResponse(t *testing.T) {
	r, line := newTestRTU(t)
	var calls int32
	srv := NewServer()
	srv.SetFallbackFunctionHandler(func(context.Context, *Request, *Server) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return make([]byte, 300), nil
		}
		return []byte{0x02, 0x00, 0x07}, nil
	})
	l, err := ListenRTU(r, srv, NewUnitSet(1))
	require.NoError(t, err)
	line.push(frame(1, 0x04, 0x00, 0x00, 0x00, 0x01), nil, nil,
		frame(1, 0x04, 0x00, 0x01, 0x00, 0x01))
	require.Eventually(t, func() bool {
		return len(line.written()) == 2
	}, time.Second, time.Millisecond)
	require.NoError(t, l.Close())
	require.Equal(t, [][]byte{
		frame(1, 0x84, 0x04),
		frame(1, 0x04, 0x02, 0x00, 0x07),
	}, line.written())
}

func TestServeCancelled(t *testing.T) {
	r, _ := newTestRTU(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Serve(ctx, NewServer(), NewUnitSet(1)), context.Canceled)
}

func TestAnswer(t *testing.T) {
	failure := errors.New("sensor offline")
	testCases := []struct {
		name    string
		unit    UnitID
		handler FunctionHandler
		expect  [][]byte
	}{
		{"data", 1, func(context.Context, *Request, *Server) ([]byte, error) {
			return []byte{0x02, 0x00, 0x07}, nil
		}, [][]byte{frame(1, 0x04, 0x02, 0x00, 0x07)}},
		{"exception", 1, func(context.Context, *Request, *Server) ([]byte, error) {
			return nil, ExceptionServerDeviceBusy
		}, [][]byte{frame(1, 0x84, 0x06)}},
		{"failure", 1, func(context.Context, *Request, *Server) ([]byte, error) {
			return nil, failure
		}, [][]byte{frame(1, 0x84, 0x04)}},
		{"oversized", 1, func(context.Context, *Request, *Server) ([]byte, error) {
			return make([]byte, maxPDULen), nil
		}, [][]byte{frame(1, 0x84, 0x04)}},
		{"suppressed", 1, func(context.Context, *Request, *Server) ([]byte, error) {
			return nil, nil
		}, nil},
		{"broadcast", 0, func(context.Context, *Request, *Server) ([]byte, error) {
			return []byte{0x02, 0x00, 0x07}, nil
		}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, line := newTestRTU(t)
			var calls int32
			srv := NewServer()
			srv.SetFallbackFunctionHandler(func(
				ctx context.Context, req *Request, srv *Server,
			) ([]byte, error) {
				atomic.AddInt32(&calls, 1)
				return tc.handler(ctx, req, srv)
			})
			req, err := decodeRequest(r.addr, tc.unit, []byte{0x04, 0x00, 0x00, 0x00, 0x01})
			require.NoError(t, err)
			require.NoError(t, r.answer(context.Background(), srv, req))
			require.Equal(t, int32(1), atomic.LoadInt32(&calls))
			require.Equal(t, tc.expect, line.written())
		})
	}
}
