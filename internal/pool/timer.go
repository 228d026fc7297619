// Package pool keeps reusable timers for the response timeouts of a link.
//
// A transfer waits for one response per chunk, so a timer is armed for every
// round trip; pooling them avoids allocating one per put request.
package pool

import (
	"sync"
	"time"
)

var timers = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()

		return t
	},
}

// AcquireTimer returns a timer that fires once after d.
//
// Hand it back with ReleaseTimer when the wait is over.
func AcquireTimer(d time.Duration) *time.Timer {
	t, _ := timers.Get().(*time.Timer)
	t.Reset(d)

	return t
}

// ReleaseTimer stops t and returns it to the pool. t must not be used afterwards.
func ReleaseTimer(t *time.Timer) {
	// Since Go 1.23 Stop guarantees that no stale value is received from t.C
	// after it returns, so the timer needs no draining.
	t.Stop()
	timers.Put(t)
}
