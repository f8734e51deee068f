package ports

import (
	"time"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
)

// TransmitQueue is one access-category queue of the channel-access
// collaborator. The migrator depends exclusively on Enqueue, DequeueFor and
// the agreement accessors.
type TransmitQueue interface {
	// Enqueue appends a frame to the tail of the queue.
	Enqueue(f domain.Frame)
	// Dequeue removes and returns the head frame, if any.
	Dequeue() (domain.Frame, bool)
	// DequeueFor removes every frame destined to peer, preserving their
	// relative order, and returns them. Frames for other peers keep their
	// positions.
	DequeueFor(peer domain.MacAddr) []domain.Frame
	// Len returns the number of queued frames.
	Len() int

	// Agreement returns an independent copy of the block-ack agreement
	// held for peer, if one exists.
	Agreement(peer domain.MacAddr) (domain.BlockAckAgreement, bool)
	// InstallAgreement records an agreement for the agreement's peer,
	// replacing any previous one.
	InstallAgreement(a domain.BlockAckAgreement)
}

// PhyStack is the PHY half of one technology entry.
type PhyStack interface {
	Standard() domain.PhyStandard
	Band() domain.BandID
}

// MacStack is the MAC half of one technology entry. It exclusively owns
// the transmit queues and agreements for every peer it currently serves.
type MacStack interface {
	Address() domain.MacAddr
	StationType() domain.StationType
	Queue(ac domain.AccessCategory) TransmitQueue

	BSSID() domain.MacAddr
	SetBSSID(bssid domain.MacAddr)
	LinkState() domain.LinkState
	SetLinkState(s domain.LinkState)
}

// RateController is the rate-control collaborator. Only the association
// bookkeeping used by coordinator-role migration is exposed here.
type RateController interface {
	RecordSuccessfulAssociation(peer domain.MacAddr)
	HasSuccessfulAssociation(peer domain.MacAddr) bool
}

// Scheduler is the discrete-event simulation clock. Schedule registers a
// callback at Now()+after and returns a handle; Cancel is idempotent and a
// no-op for fired or unknown handles.
type Scheduler interface {
	Now() time.Duration
	Schedule(after time.Duration, fn func()) uint64
	Cancel(id uint64)
}

// BandSwitcher executes the migration of one peer's resources to a new
// technology stack.
type BandSwitcher interface {
	SwitchBand(peer domain.MacAddr, newStandard domain.PhyStandard, isInitiator bool) error
}

// TraceSink receives every frame that crosses the simulated medium.
type TraceSink interface {
	RecordFrame(ts time.Duration, standard domain.PhyStandard, f domain.Frame) error
	Close() error
}

// Storage persists the transition audit log of a run.
type Storage interface {
	SaveTransition(rec domain.TransitionRecord) error
	TransitionsForRun(runID string) ([]domain.TransitionRecord, error)
	Close() error
}

// EventPublisher pushes live transition records to observers (the web
// adapter's websocket stream).
type EventPublisher interface {
	Publish(rec domain.TransitionRecord)
}

// FrameReceiver is a device as seen by the medium.
type FrameReceiver interface {
	Address() domain.MacAddr
	DeliverFrame(standard domain.PhyStandard, f domain.Frame)
}

// Medium carries frames between devices on one simulated channel per
// technology. Transmit schedules delivery through the event loop and
// reports the transmission result back to the sender.
type Medium interface {
	Attach(r FrameReceiver)
	Transmit(standard domain.PhyStandard, f domain.Frame, confirm func(ok bool))
}
