package mac

import (
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
)

// Queue is a FIFO access-category queue holding frames and the per-peer
// block-ack agreements negotiated for that category.
type Queue struct {
	ac         domain.AccessCategory
	frames     []domain.Frame
	agreements map[domain.MacAddr]domain.BlockAckAgreement
}

// NewQueue returns an empty queue for the given access category.
func NewQueue(ac domain.AccessCategory) *Queue {
	return &Queue{
		ac:         ac,
		agreements: make(map[domain.MacAddr]domain.BlockAckAgreement),
	}
}

// Enqueue appends a frame to the tail of the queue.
func (q *Queue) Enqueue(f domain.Frame) {
	q.frames = append(q.frames, f)
}

// Dequeue removes and returns the head frame.
func (q *Queue) Dequeue() (domain.Frame, bool) {
	if len(q.frames) == 0 {
		return domain.Frame{}, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// DequeueFor partitions the queue: frames destined to peer are removed and
// returned in their original relative order, everything else stays put.
func (q *Queue) DequeueFor(peer domain.MacAddr) []domain.Frame {
	var moved, kept []domain.Frame
	for _, f := range q.frames {
		if f.Dst == peer {
			moved = append(moved, f)
		} else {
			kept = append(kept, f)
		}
	}
	q.frames = kept
	return moved
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	return len(q.frames)
}

// Agreement returns a copy of the block-ack agreement held for peer.
func (q *Queue) Agreement(peer domain.MacAddr) (domain.BlockAckAgreement, bool) {
	a, ok := q.agreements[peer]
	if !ok {
		return domain.BlockAckAgreement{}, false
	}
	return a.Copy(), true
}

// InstallAgreement records an agreement for its peer, replacing any
// previous one.
func (q *Queue) InstallAgreement(a domain.BlockAckAgreement) {
	q.agreements[a.Peer] = a
}
