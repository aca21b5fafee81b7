package modbus

import (
	"sync"
	"time"
)

// testLine is an in-memory Line. Reads pop queued chunks; a nil chunk is
// one silent read window. Writes are recorded and handed to onWrite, which
// may queue the reply.
type testLine struct {
	mu       sync.Mutex
	chunks   [][]byte
	writes   [][]byte
	timeouts []time.Duration
	resets   int
	drains   int
	closed   bool
	rts, dtr []bool

	onWrite func(frame []byte)
}

// push queues chunks to be read.
func (l *testLine) push(chunks ...[]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks = append(l.chunks, chunks...)
}

func (l *testLine) Read(p []byte) (int, error) {
	l.mu.Lock()
	if len(l.chunks) == 0 {
		l.mu.Unlock()
		// Keep serve loops from spinning on an idle line.
		time.Sleep(100 * time.Microsecond)
		return 0, nil
	}
	chunk := l.chunks[0]
	l.chunks = l.chunks[1:]
	defer l.mu.Unlock()
	if chunk == nil {
		return 0, nil
	}
	n := copy(p, chunk)
	if n < len(chunk) {
		l.chunks = append([][]byte{chunk[n:]}, l.chunks...)
	}
	return n, nil
}

func (l *testLine) Write(p []byte) (int, error) {
	frame := append([]byte(nil), p...)
	l.mu.Lock()
	l.writes = append(l.writes, frame)
	onWrite := l.onWrite
	l.mu.Unlock()
	if onWrite != nil {
		onWrite(frame)
	}
	return len(p), nil
}

func (l *testLine) SetReadTimeout(t time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeouts = append(l.timeouts, t)
	return nil
}

func (l *testLine) ResetInputBuffer() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
	l.chunks = nil
	return nil
}

func (l *testLine) Drain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drains++
	return nil
}

func (l *testLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *testLine) SetRTS(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rts = append(l.rts, on)
	return nil
}

func (l *testLine) SetDTR(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dtr = append(l.dtr, on)
	return nil
}

// written returns a copy of the frames written so far.
func (l *testLine) written() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.writes...)
}

// reply makes the line answer every write with the given frames.
func (l *testLine) reply(frames ...[]byte) {
	l.onWrite = func([]byte) {
		l.push(frames...)
	}
}

// plainLine is a Line without modem control outputs.
type plainLine struct {
	testLine
}

// SetRTS and SetDTR are shadowed so plainLine does not satisfy
// modemLineSetter.
func (*plainLine) SetRTS() {}
func (*plainLine) SetDTR() {}
