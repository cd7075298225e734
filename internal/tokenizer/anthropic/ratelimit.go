package anthropic

import (
	"sync"
	"time"
)

// rpmWindow is a fixed-window requests-per-minute limiter: the counter
// resets when the window expires, with no carry-over between windows.
type rpmWindow struct {
	mu    sync.Mutex
	limit int
	start time.Time
	count int

	now func() time.Time
}

func newRPMWindow(limit int) *rpmWindow {
	return &rpmWindow{limit: limit, now: time.Now}
}

// Allow reports whether another request fits in the current window and
// consumes one slot if so.
func (w *rpmWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.start) >= time.Minute {
		w.start = now
		w.count = 0
	}
	if w.count >= w.limit {
		return false
	}
	w.count++
	return true
}
