// Package play runs the local animation preview loop: a cancellable,
// restartable scheduler that emits frames to a display sink at a fixed
// interval.
package play

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/pattern"
)

// DefaultFrameDelay matches the device-side playback rate.
const DefaultFrameDelay = 100 * time.Millisecond

// session is one playback run. At most one session is current at any time.
type session struct {
	frames pattern.Animation
	cancel chan struct{}
	done   chan struct{}
	stop   sync.Once
}

func (c *session) signalStop() {
	c.stop.Do(func() { close(c.cancel) })
}

// Scheduler cycles an animation against a display sink. Starting a new run
// fully quiesces the previous one before the first new frame is emitted, so
// two loops can never write to the same surface concurrently.
type Scheduler struct {
	startMu sync.Mutex // serializes Start callers through the quiesce phase
	mu      sync.Mutex // guards cur
	cur     *session

	sink  display.Driver
	delay time.Duration
	log   zerolog.Logger
}

func New(sink display.Driver, delay time.Duration, log zerolog.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultFrameDelay
	}
	return &Scheduler{sink: sink, delay: delay, log: log}
}

// Start replaces the current run with a new one. If a loop is in flight it is
// signalled and waited for; only then does the new loop begin emitting.
func (s *Scheduler) Start(frames pattern.Animation) error {
	if err := frames.Validate(); err != nil {
		return err
	}
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	prev := s.cur
	s.mu.Unlock()
	if prev != nil {
		prev.signalStop()
		<-prev.done
	}

	cur := &session{
		frames: frames.Clone(),
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	s.cur = cur
	s.mu.Unlock()

	go s.run(cur)
	return nil
}

// Stop signals cancellation and returns immediately; the loop observes the
// signal within one frame interval and clears itself.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()
	if cur != nil {
		cur.signalStop()
	}
}

// Running reports whether a playback loop is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// SetDelay changes the frame interval; the running loop picks it up on the
// next frame.
func (s *Scheduler) SetDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

func (s *Scheduler) frameDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

func (s *Scheduler) run(c *session) {
	defer func() {
		s.mu.Lock()
		if s.cur == c {
			s.cur = nil
		}
		s.mu.Unlock()
		close(c.done)
	}()
	for {
		for _, f := range c.frames {
			select {
			case <-c.cancel:
				return
			default:
			}
			if err := s.sink.Show(f); err != nil {
				// A dropped preview frame is not fatal; keep playing.
				s.log.Warn().Err(err).Msg("frame update failed")
			}
			select {
			case <-c.cancel:
				return
			case <-time.After(s.frameDelay()):
			}
		}
	}
}
