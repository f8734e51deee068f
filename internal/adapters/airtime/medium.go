// Package airtime models the radio channel between simulated devices: an
// ideal medium with a fixed propagation/ack delay and per-band
// reachability switches to model a target band being out of range.
package airtime

import (
	"log"
	"time"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// DefaultDelay is the one-way frame delivery delay.
const DefaultDelay = 10 * time.Microsecond

// Medium is a perfect shared channel. Every attached device hears frames
// addressed to it on any band marked reachable.
type Medium struct {
	sched     ports.Scheduler
	delay     time.Duration
	devices   map[domain.MacAddr]ports.FrameReceiver
	unreached map[domain.PhyStandard]bool
}

// New returns a medium with the default delay.
func New(sched ports.Scheduler) *Medium {
	return &Medium{
		sched:     sched,
		delay:     DefaultDelay,
		devices:   make(map[domain.MacAddr]ports.FrameReceiver),
		unreached: make(map[domain.PhyStandard]bool),
	}
}

// SetDelay overrides the one-way delivery delay.
func (m *Medium) SetDelay(d time.Duration) {
	m.delay = d
}

// Attach registers a device on the medium.
func (m *Medium) Attach(r ports.FrameReceiver) {
	m.devices[r.Address()] = r
}

// SetReachable marks a band as usable or dead. Frames transmitted on a
// dead band are lost and their transmission fails.
func (m *Medium) SetReachable(standard domain.PhyStandard, reachable bool) {
	m.unreached[standard] = !reachable
}

// Transmit delivers f to its destination after the propagation delay and
// confirms the transmission to the sender one round trip later (the
// acknowledgment). On an unreachable band the frame is lost and the
// confirmation reports failure.
func (m *Medium) Transmit(standard domain.PhyStandard, f domain.Frame, confirm func(ok bool)) {
	if m.unreached[standard] {
		m.sched.Schedule(2*m.delay, func() {
			if confirm != nil {
				confirm(false)
			}
		})
		return
	}
	dst, ok := m.devices[f.Dst]
	if !ok {
		log.Printf("airtime: no device %s on medium, dropping frame", f.Dst)
		m.sched.Schedule(2*m.delay, func() {
			if confirm != nil {
				confirm(false)
			}
		})
		return
	}
	m.sched.Schedule(m.delay, func() {
		dst.DeliverFrame(standard, f)
	})
	m.sched.Schedule(2*m.delay, func() {
		if confirm != nil {
			confirm(true)
		}
	})
}

var _ ports.Medium = (*Medium)(nil)
