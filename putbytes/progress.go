package putbytes

// ProgressObserver receives transfer progress.
//
// OnProgress is called after every acknowledged chunk, in send order, with the
// number of payload bytes acknowledged so far and the object size. When the data
// phase completes the last call has sent == total. It is never called for an
// empty object.
type ProgressObserver interface {
	OnProgress(sent int, total int)
}

// ProgressFunc adapts a function to a ProgressObserver.
type ProgressFunc func(sent int, total int)

// OnProgress calls f(sent, total).
func (f ProgressFunc) OnProgress(sent int, total int) {
	f(sent, total)
}

// Progress is one progress notification.
type Progress struct {
	Sent  int
	Total int
}

// Done reports whether the whole object has been acknowledged.
func (p Progress) Done() bool {
	return p.Sent == p.Total
}

// ProgressChan returns an observer that delivers notifications on ch.
//
// Sends are blocking, so the transfer stalls until ch is drained; give ch enough
// buffer or read it from another goroutine.
func ProgressChan(ch chan<- Progress) ProgressObserver {
	return ProgressFunc(func(sent int, total int) {
		ch <- Progress{Sent: sent, Total: total}
	})
}
