// Package mac provides the reference MAC stack used by the simulator: four
// EDCA access-category queues with per-peer partition-and-move, block-ack
// agreement bookkeeping and client association state.
package mac

import (
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// Stack is one MAC instance serving one technology on a device.
type Stack struct {
	addr        domain.MacAddr
	stationType domain.StationType
	queues      map[domain.AccessCategory]*Queue

	bssid     domain.MacAddr
	linkState domain.LinkState
}

// NewStack builds a MAC stack with one queue per access category.
func NewStack(addr domain.MacAddr, stationType domain.StationType) *Stack {
	queues := make(map[domain.AccessCategory]*Queue, len(domain.AccessCategories))
	for _, ac := range domain.AccessCategories {
		queues[ac] = NewQueue(ac)
	}
	return &Stack{
		addr:        addr,
		stationType: stationType,
		queues:      queues,
	}
}

// Address returns the MAC address shared by every stack on the device.
func (s *Stack) Address() domain.MacAddr {
	return s.addr
}

// StationType returns whether this MAC plays the client or coordinator role.
func (s *Stack) StationType() domain.StationType {
	return s.stationType
}

// Queue returns the transmit queue for an access category.
func (s *Stack) Queue(ac domain.AccessCategory) ports.TransmitQueue {
	return s.queues[ac]
}

// BSSID returns the network identifier the client is bound to.
func (s *Stack) BSSID() domain.MacAddr {
	return s.bssid
}

// SetBSSID binds the client to a network identifier.
func (s *Stack) SetBSSID(bssid domain.MacAddr) {
	s.bssid = bssid
}

// LinkState returns the client association state.
func (s *Stack) LinkState() domain.LinkState {
	return s.linkState
}

// SetLinkState updates the client association state.
func (s *Stack) SetLinkState(state domain.LinkState) {
	s.linkState = state
}

// QueuedFor counts the frames destined to peer across all categories.
func (s *Stack) QueuedFor(peer domain.MacAddr) int {
	n := 0
	for _, q := range s.queues {
		for _, f := range q.frames {
			if f.Dst == peer {
				n++
			}
		}
	}
	return n
}

var _ ports.MacStack = (*Stack)(nil)
