package sampler

import "sync"

// FrameScheduler runs callbacks on the host's next display refresh.
type FrameScheduler interface {
	RequestFrame(fn func()) int
	CancelFrame(id int)
}

// FrameQueue is a FrameScheduler driven by the window loop: the loop calls
// Flush once per presented frame.
type FrameQueue struct {
	lk      sync.Mutex
	next    int
	pending []frameRequest
}

type frameRequest struct {
	id int
	fn func()
}

func (q *FrameQueue) RequestFrame(fn func()) int {
	q.lk.Lock()
	defer q.lk.Unlock()

	q.next++
	q.pending = append(q.pending, frameRequest{id: q.next, fn: fn})
	return q.next
}

func (q *FrameQueue) CancelFrame(id int) {
	q.lk.Lock()
	defer q.lk.Unlock()

	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Flush runs the callbacks queued before the call. Callbacks requested while
// flushing wait for the next Flush. It returns how many ran.
func (q *FrameQueue) Flush() int {
	q.lk.Lock()
	batch := q.pending
	q.pending = nil
	q.lk.Unlock()

	for _, r := range batch {
		r.fn()
	}
	return len(batch)
}

func (q *FrameQueue) Len() int {
	q.lk.Lock()
	defer q.lk.Unlock()
	return len(q.pending)
}
