package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// timerSlot owns the one pending timer a room is allowed to have. Each
// schedule supersedes the previous one, and a sequence token discards a
// callback that already fired concurrently with its cancellation.
type timerSlot struct {
	clock quartz.Clock

	mu    sync.Mutex
	timer *quartz.Timer
	seq   uint64
}

func newTimerSlot(clock quartz.Clock) *timerSlot {
	return &timerSlot{clock: clock}
}

// schedule arms the slot to run fn after d, replacing any pending callback.
func (t *timerSlot) schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	token := t.seq
	t.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		stale := token != t.seq
		t.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// cancel drops any pending callback.
func (t *timerSlot) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
}
