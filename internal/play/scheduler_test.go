package play

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// taggedSink records which frame bytes arrived, in order.
type taggedSink struct {
	mu   sync.Mutex
	tags []byte
	fail bool
}

func (t *taggedSink) Show(p pattern.Pattern) error {
	t.mu.Lock()
	t.tags = append(t.tags, p[0])
	t.mu.Unlock()
	if t.fail {
		return assert.AnError
	}
	return nil
}

func (t *taggedSink) Close() error { return nil }

func (t *taggedSink) seen() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.tags...)
}

func tagged(tag byte, n int) pattern.Animation {
	a := make(pattern.Animation, n)
	for i := range a {
		f := make(pattern.Pattern, pattern.Size)
		f[0] = tag
		a[i] = f
	}
	return a
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not go idle")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartRejectsEmptyAnimation(t *testing.T) {
	s := New(&taggedSink{}, time.Millisecond, zerolog.Nop())
	assert.ErrorIs(t, s.Start(nil), pattern.ErrNoFrames)
}

func TestPlaybackLoopsAndStops(t *testing.T) {
	sink := &taggedSink{}
	s := New(sink, 2*time.Millisecond, zerolog.Nop())

	require.NoError(t, s.Start(tagged('a', 3)))
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	waitIdle(t, s)

	seen := sink.seen()
	assert.Greater(t, len(seen), 3, "loop must cycle past one pass")
	for _, tag := range seen {
		assert.EqualValues(t, 'a', tag)
	}
}

func TestRestartQuiescesPreviousLoop(t *testing.T) {
	sink := &taggedSink{}
	s := New(sink, 20*time.Millisecond, zerolog.Nop())

	require.NoError(t, s.Start(tagged('a', 5)))
	time.Sleep(10 * time.Millisecond) // less than one frame interval
	require.NoError(t, s.Start(tagged('b', 5)))
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	waitIdle(t, s)

	seen := sink.seen()
	require.NotEmpty(t, seen)
	// Once the first 'b' frame is emitted, no 'a' frame may follow.
	sawB := false
	for _, tag := range seen {
		if tag == 'b' {
			sawB = true
		} else if sawB {
			t.Fatalf("frame %q emitted after the new run began: %q", tag, seen)
		}
	}
	assert.True(t, sawB, "second run never emitted")
}

func TestConcurrentStartsLeaveOneLoop(t *testing.T) {
	sink := &taggedSink{}
	s := New(sink, time.Millisecond, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		tag := byte('a' + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Start(tagged(tag, 2))
		}()
	}
	wg.Wait()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	waitIdle(t, s)

	// After the last Start wins, the tail of the stream must be uniform.
	seen := sink.seen()
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	for i := len(seen) - 1; i >= 0 && seen[i] == last; i-- {
		seen = seen[:i]
	}
	for _, tag := range seen {
		assert.NotEqual(t, last, tag, "winner's frames may not interleave with a loser's")
	}
}

func TestStopIsFireAndForget(t *testing.T) {
	s := New(&taggedSink{}, time.Millisecond, zerolog.Nop())
	s.Stop() // idle stop is a no-op

	require.NoError(t, s.Start(tagged('a', 1)))
	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Stop blocked")
	}
	waitIdle(t, s)
}

func TestSinkFailureDoesNotStopPlayback(t *testing.T) {
	sink := &taggedSink{fail: true}
	s := New(sink, time.Millisecond, zerolog.Nop())

	require.NoError(t, s.Start(tagged('a', 2)))
	time.Sleep(15 * time.Millisecond)
	s.Stop()
	waitIdle(t, s)

	assert.Greater(t, len(sink.seen()), 2, "loop must survive sink errors")
}
