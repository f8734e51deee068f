package mac

import (
	"testing"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

const (
	peerA = domain.MacAddr("aa:aa:aa:aa:aa:01")
	peerB = domain.MacAddr("aa:aa:aa:aa:aa:02")
)

func frameTo(dst domain.MacAddr, tag byte) domain.Frame {
	return domain.Frame{Dst: dst, AC: domain.ACBestEffort, Payload: []byte{tag}}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(domain.ACBestEffort)
	q.Enqueue(frameTo(peerA, 1))
	q.Enqueue(frameTo(peerA, 2))

	f, ok := q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, byte(1), f.Payload[0])

	f, ok = q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, byte(2), f.Payload[0])

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestQueue_DequeueFor_PartitionsByPeer(t *testing.T) {
	q := NewQueue(domain.ACVideo)
	q.Enqueue(frameTo(peerA, 1))
	q.Enqueue(frameTo(peerB, 2))
	q.Enqueue(frameTo(peerA, 3))
	q.Enqueue(frameTo(peerB, 4))

	moved := q.DequeueFor(peerA)

	assert.Len(t, moved, 2)
	assert.Equal(t, byte(1), moved[0].Payload[0])
	assert.Equal(t, byte(3), moved[1].Payload[0])

	// Other peer's frames untouched, order preserved.
	assert.Equal(t, 2, q.Len())
	f, _ := q.Dequeue()
	assert.Equal(t, byte(2), f.Payload[0])
	f, _ = q.Dequeue()
	assert.Equal(t, byte(4), f.Payload[0])
}

func TestQueue_DequeueFor_NoMatches(t *testing.T) {
	q := NewQueue(domain.ACVoice)
	q.Enqueue(frameTo(peerB, 1))

	moved := q.DequeueFor(peerA)
	assert.Empty(t, moved)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Agreements(t *testing.T) {
	q := NewQueue(domain.ACBestEffort)

	_, ok := q.Agreement(peerA)
	assert.False(t, ok)

	q.InstallAgreement(domain.BlockAckAgreement{Peer: peerA, TID: 3, BufferSize: 64, StartSeq: 100})

	a, ok := q.Agreement(peerA)
	assert.True(t, ok)
	assert.Equal(t, uint16(64), a.BufferSize)

	// Returned value is a copy: mutating it does not affect the stored one.
	a.StartSeq = 999
	again, _ := q.Agreement(peerA)
	assert.Equal(t, uint16(100), again.StartSeq)
}

func TestStack_QueuedFor(t *testing.T) {
	s := NewStack("00:00:00:00:00:01", domain.StationClient)
	s.Queue(domain.ACBestEffort).Enqueue(frameTo(peerA, 1))
	s.Queue(domain.ACVoice).Enqueue(frameTo(peerA, 2))
	s.Queue(domain.ACVoice).Enqueue(frameTo(peerB, 3))

	assert.Equal(t, 2, s.QueuedFor(peerA))
	assert.Equal(t, 1, s.QueuedFor(peerB))
}
