// Package link frames patterns and animations onto a device byte stream and
// waits for the firmware's line-oriented acknowledgment.
package link

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/pattern"
)

// Stream is the byte-stream collaborator the link is handed. It is already
// open; the link owns only framing, send and ack-wait. ReadLine returns an
// empty slice when nothing is pending.
type Stream interface {
	Write(p []byte) error
	ReadLine() ([]byte, error)
	Flush() error
	Close() error
}

// AckStatus classifies the outcome of one transmission.
type AckStatus int

const (
	Acknowledged AckStatus = iota
	TimedOut
	TransportFailed
)

func (s AckStatus) String() string {
	switch s {
	case Acknowledged:
		return "acknowledged"
	case TimedOut:
		return "timed out"
	case TransportFailed:
		return "transport failed"
	default:
		return fmt.Sprintf("AckStatus(%d)", int(s))
	}
}

// AckResult is produced once per send call and consumed by the caller for
// logging and branching.
type AckResult struct {
	Status  AckStatus
	Line    string // the ack line that terminated the wait, if any
	Elapsed time.Duration
}

var (
	ErrBadFrameCount = fmt.Errorf("animation must have between 1 and %d frames", MaxFrames)
	ErrNilStream     = errors.New("link requires an open stream")
)

// Link owns the device stream exclusively. Callers serialize sends; the
// internal mutex guarantees the protocol bytes of one send are never
// interleaved with another.
type Link struct {
	mu         sync.Mutex
	stream     Stream
	sink       display.Driver // optional preview surface
	ackTimeout time.Duration
	log        zerolog.Logger
	closed     bool
}

// New wires a link around an already-open stream. sink may be nil.
func New(stream Stream, sink display.Driver, ackTimeout time.Duration, log zerolog.Logger) (*Link, error) {
	if stream == nil {
		return nil, ErrNilStream
	}
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	return &Link{stream: stream, sink: sink, ackTimeout: ackTimeout, log: log}, nil
}

// SendFrame transmits a single pattern. The preview sink is updated as soon
// as the payload is written: the preview is independent of the hardware ack.
func (l *Link) SendFrame(p pattern.Pattern) (AckResult, error) {
	if err := p.Validate(); err != nil {
		return AckResult{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := make([]byte, 0, pattern.Size+2)
	buf = append(buf, FrameStart)
	buf = append(buf, p...)
	buf = append(buf, FrameEnd)

	if res, ok := l.writeAll(buf); !ok {
		return res, nil
	}
	l.updateSink(p)

	res := l.waitAck(AckPattern)
	l.logResult("pattern", res)
	return res, nil
}

// SendAnimation transmits a bounded frame sequence. Both the plain success
// line and the firmware's "invalid end marker" line terminate the wait as an
// acknowledgment; the latter signals protocol drift and is logged at warn.
func (l *Link) SendAnimation(frames pattern.Animation) (AckResult, error) {
	if err := frames.Validate(); err != nil {
		return AckResult{}, err
	}
	if len(frames) > MaxFrames {
		return AckResult{}, ErrBadFrameCount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := make([]byte, 0, len(frames)*pattern.Size+3)
	buf = append(buf, AnimStart, byte(len(frames)))
	for _, f := range frames {
		buf = append(buf, f...)
	}
	buf = append(buf, AnimEnd)

	if res, ok := l.writeAll(buf); !ok {
		return res, nil
	}

	res := l.waitAck(AckAnimation, AckBadEndMarker)
	if res.Status == Acknowledged && res.Line == AckBadEndMarker {
		l.log.Warn().Str("line", res.Line).Msg("device consumed the animation but rejected the end marker")
	}
	l.logResult("animation", res)
	return res, nil
}

// Close is idempotent and best-effort; errors are logged, not raised.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if err := l.stream.Close(); err != nil {
		l.log.Warn().Err(err).Msg("stream close failed")
	}
}

// writeAll pushes the whole frame in one uninterrupted sequence and flushes.
func (l *Link) writeAll(buf []byte) (AckResult, bool) {
	if err := l.stream.Write(buf); err != nil {
		l.log.Error().Err(err).Int("bytes", len(buf)).Msg("serial write failed")
		return AckResult{Status: TransportFailed}, false
	}
	if err := l.stream.Flush(); err != nil {
		l.log.Error().Err(err).Msg("serial flush failed")
		return AckResult{Status: TransportFailed}, false
	}
	return AckResult{}, true
}

func (l *Link) updateSink(p pattern.Pattern) {
	if l.sink == nil {
		return
	}
	if err := l.sink.Show(p); err != nil {
		l.log.Warn().Err(err).Msg("preview update failed")
	}
}

// waitAck polls the stream for one of the accepted lines until the timeout
// elapses. Unrelated chatter on the line is ignored.
func (l *Link) waitAck(accepted ...string) AckResult {
	start := time.Now()
	deadline := start.Add(l.ackTimeout)
	for {
		raw, err := l.stream.ReadLine()
		if err != nil {
			l.log.Error().Err(err).Msg("serial read failed")
			return AckResult{Status: TransportFailed, Elapsed: time.Since(start)}
		}
		if line := strings.TrimSpace(string(raw)); line != "" {
			for _, want := range accepted {
				if line == want {
					return AckResult{Status: Acknowledged, Line: line, Elapsed: time.Since(start)}
				}
			}
			l.log.Debug().Str("line", line).Msg("ignoring unexpected line")
		}
		if time.Now().After(deadline) {
			return AckResult{Status: TimedOut, Elapsed: time.Since(start)}
		}
		time.Sleep(ackPollInterval)
	}
}

func (l *Link) logResult(kind string, res AckResult) {
	ev := l.log.Info()
	if res.Status != Acknowledged {
		ev = l.log.Warn()
	}
	ev.Str("kind", kind).Stringer("status", res.Status).Dur("elapsed", res.Elapsed).Msg("send complete")
}
