package link

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []pattern.Pattern
}

func (r *recordingSink) Show(p pattern.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, p.Clone())
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func newTestLink(t *testing.T, stream Stream, sink *recordingSink, timeout time.Duration) *Link {
	t.Helper()
	var d Stream = stream
	l, err := New(d, sink, timeout, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestNewRequiresStream(t *testing.T) {
	_, err := New(nil, nil, 0, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNilStream)
}

func TestSendFrameWritesFramedPayload(t *testing.T) {
	mock := NewMockStream(10 * time.Millisecond)
	sink := &recordingSink{}
	l := newTestLink(t, mock, sink, time.Second)

	p := pattern.Fallback()
	res, err := l.SendFrame(p)
	require.NoError(t, err)
	assert.Equal(t, Acknowledged, res.Status)
	assert.Equal(t, AckPattern, res.Line)

	writes := mock.Writes()
	require.Len(t, writes, 1, "payload must go out as one uninterrupted sequence")
	want := append([]byte{FrameStart}, p...)
	want = append(want, FrameEnd)
	assert.Equal(t, want, writes[0])
	assert.Equal(t, 1, sink.count())
}

func TestSendFrameRejectsBadLengthBeforeIO(t *testing.T) {
	for _, n := range []int{0, 7, 9} {
		mock := NewMockStream(time.Millisecond)
		l := newTestLink(t, mock, nil, time.Second)
		_, err := l.SendFrame(make(pattern.Pattern, n))
		assert.ErrorIs(t, err, pattern.ErrBadLength)
		assert.Empty(t, mock.Writes(), "no bytes may reach the stream for a %d-row pattern", n)
	}
}

func TestSendAnimationRejectsBadFrameCountBeforeIO(t *testing.T) {
	mock := NewMockStream(time.Millisecond)
	l := newTestLink(t, mock, nil, time.Second)

	_, err := l.SendAnimation(pattern.Animation{})
	assert.ErrorIs(t, err, pattern.ErrNoFrames)

	_, err = l.SendAnimation(pattern.FallbackAnimation(11))
	assert.ErrorIs(t, err, ErrBadFrameCount)

	assert.Empty(t, mock.Writes())
}

func TestSendAnimationFramesAndCountByte(t *testing.T) {
	mock := NewMockStream(10 * time.Millisecond)
	l := newTestLink(t, mock, nil, time.Second)

	frames := pattern.FallbackAnimation(3)
	res, err := l.SendAnimation(frames)
	require.NoError(t, err)
	assert.Equal(t, Acknowledged, res.Status)
	assert.Equal(t, AckAnimation, res.Line)

	writes := mock.Writes()
	require.Len(t, writes, 1)
	payload := writes[0]
	assert.Equal(t, AnimStart, payload[0])
	assert.Equal(t, byte(3), payload[1])
	assert.Equal(t, AnimEnd, payload[len(payload)-1])
	assert.Len(t, payload, 3*pattern.Size+3)
}

func TestSilentDeviceTimesOutButPreviewStillUpdates(t *testing.T) {
	mock := NewMockStream(time.Millisecond)
	mock.Silent = true
	sink := &recordingSink{}
	l := newTestLink(t, mock, sink, 150*time.Millisecond)

	res, err := l.SendFrame(pattern.Fallback())
	require.NoError(t, err)
	assert.Equal(t, TimedOut, res.Status)
	assert.GreaterOrEqual(t, res.Elapsed, 150*time.Millisecond)
	assert.Equal(t, 1, sink.count(), "preview updates independently of the hardware ack")
}

func TestDeadTransportFailsWithoutAckWait(t *testing.T) {
	mock := NewMockStream(time.Millisecond)
	mock.FailWrites = true
	sink := &recordingSink{}
	l := newTestLink(t, mock, sink, time.Second)

	res, err := l.SendFrame(pattern.Fallback())
	require.NoError(t, err)
	assert.Equal(t, TransportFailed, res.Status)
	assert.Zero(t, sink.count(), "nothing was written, nothing to preview")
}

func TestInvalidEndMarkerLineStillAcknowledged(t *testing.T) {
	mock := NewMockStream(10 * time.Millisecond)
	l := newTestLink(t, mock, nil, time.Second)

	// Force the mock to answer with the drift line by making it treat the
	// payload as a truncated animation.
	res := l.ackOnScripted(t, mock)
	assert.Equal(t, Acknowledged, res.Status)
	assert.Equal(t, AckBadEndMarker, res.Line)
}

// ackOnScripted queues the drift ack directly and runs an animation ack wait.
func (l *Link) ackOnScripted(t *testing.T, m *MockStream) AckResult {
	t.Helper()
	m.mu.Lock()
	m.inbox = append(m.inbox, []byte(AckBadEndMarker+"\n"))
	m.mu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitAck(AckAnimation, AckBadEndMarker)
}

func TestCloseIsIdempotent(t *testing.T) {
	mock := NewMockStream(time.Millisecond)
	l := newTestLink(t, mock, nil, time.Second)
	l.Close()
	l.Close()
}

func TestMockAckSequencing(t *testing.T) {
	mock := NewMockStream(5 * time.Millisecond)

	require.NoError(t, mock.Write([]byte{0x01, 0x02}))
	time.Sleep(30 * time.Millisecond)
	line, err := mock.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "Unknown command received.\n", string(line))

	// Nothing pending afterwards.
	line, err = mock.ReadLine()
	require.NoError(t, err)
	assert.Empty(t, line)
}
