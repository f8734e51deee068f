// Package simloop provides the single-threaded discrete-event clock the
// whole simulation runs on. Events execute in timestamp order (insertion
// order breaks ties), so a frame-arrival handler is atomic with respect to
// every other session and peer.
package simloop

import (
	"container/heap"
	"time"
)

type event struct {
	at  time.Duration
	seq uint64
	id  uint64
	fn  func()

	index int
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is a discrete-event scheduler. It is not safe for concurrent
// use: all scheduling happens from within the event loop itself or before
// Run is called.
type Scheduler struct {
	now     time.Duration
	queue   eventHeap
	pending map[uint64]*event
	nextID  uint64
	nextSeq uint64
}

// New returns an empty scheduler with the clock at zero.
func New() *Scheduler {
	return &Scheduler{pending: make(map[uint64]*event)}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Schedule registers fn to run at Now()+after and returns its handle.
// A negative delay is treated as zero.
func (s *Scheduler) Schedule(after time.Duration, fn func()) uint64 {
	if after < 0 {
		after = 0
	}
	s.nextID++
	s.nextSeq++
	e := &event{at: s.now + after, seq: s.nextSeq, id: s.nextID, fn: fn}
	heap.Push(&s.queue, e)
	s.pending[e.id] = e
	return e.id
}

// Cancel removes a scheduled event. Cancelling an already-fired or unknown
// handle is a no-op.
func (s *Scheduler) Cancel(id uint64) {
	e, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	heap.Remove(&s.queue, e.index)
}

// Pending reports whether the event with the given handle is still queued.
func (s *Scheduler) Pending(id uint64) bool {
	_, ok := s.pending[id]
	return ok
}

// Step executes the next event, advancing the clock to its timestamp.
// It returns false when the queue is empty.
func (s *Scheduler) Step() bool {
	if s.queue.Len() == 0 {
		return false
	}
	e := heap.Pop(&s.queue).(*event)
	delete(s.pending, e.id)
	s.now = e.at
	e.fn()
	return true
}

// Run executes events until the queue drains.
func (s *Scheduler) Run() {
	for s.Step() {
	}
}

// RunUntil executes events with timestamps up to and including deadline,
// then advances the clock to deadline.
func (s *Scheduler) RunUntil(deadline time.Duration) {
	for s.queue.Len() > 0 && s.queue[0].at <= deadline {
		s.Step()
	}
	if s.now < deadline {
		s.now = deadline
	}
}
