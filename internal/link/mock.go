package link

import (
	"errors"
	"sync"
	"time"
)

// MockStream simulates the device end of the serial line: it records every
// write and, after a short processing delay, queues the acknowledgment line
// the firmware would send for that payload.
type MockStream struct {
	// Silent suppresses all acknowledgments (a device that never answers).
	Silent bool
	// FailWrites makes every write fail (a dead transport).
	FailWrites bool

	mu      sync.Mutex
	writes  [][]byte
	inbox   [][]byte
	delay   time.Duration
	closed  bool
	pending sync.WaitGroup
}

// NewMockStream builds a simulated device that acks after ackDelay.
func NewMockStream(ackDelay time.Duration) *MockStream {
	if ackDelay <= 0 {
		ackDelay = 500 * time.Millisecond
	}
	return &MockStream{delay: ackDelay}
}

var errMockWrite = errors.New("mock transport write failure")

func (m *MockStream) Write(data []byte) error {
	if m.FailWrites {
		return errMockWrite
	}
	m.mu.Lock()
	cp := append([]byte(nil), data...)
	m.writes = append(m.writes, cp)
	m.mu.Unlock()

	if m.Silent || len(data) == 0 {
		return nil
	}
	ack := m.ackFor(cp)
	m.pending.Add(1)
	time.AfterFunc(m.delay, func() {
		defer m.pending.Done()
		m.mu.Lock()
		if !m.closed {
			m.inbox = append(m.inbox, []byte(ack+"\n"))
		}
		m.mu.Unlock()
	})
	return nil
}

func (m *MockStream) ackFor(data []byte) string {
	last := data[len(data)-1]
	switch {
	case data[0] == FrameStart && last == FrameEnd:
		return AckPattern
	case data[0] == AnimStart && last == AnimEnd:
		return AckAnimation
	case data[0] == AnimStart:
		return AckBadEndMarker
	default:
		return "Unknown command received."
	}
}

func (m *MockStream) ReadLine() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inbox) == 0 {
		return nil, nil
	}
	line := m.inbox[0]
	m.inbox = m.inbox[1:]
	return line, nil
}

func (m *MockStream) Flush() error { return nil }

func (m *MockStream) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.pending.Wait()
	return nil
}

// Writes returns a copy of everything written so far.
func (m *MockStream) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}
