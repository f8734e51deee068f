package domain

// SessionState is the state of one FST session state machine.
type SessionState int

const (
	StateInitial SessionState = iota
	StateSetupCompletion
	StateTransitionDone
	StateTransitionConfirmed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateSetupCompletion:
		return "setup_completion"
	case StateTransitionDone:
		return "transition_done"
	case StateTransitionConfirmed:
		return "transition_confirmed"
	default:
		return "invalid"
	}
}

// SessionRole says which side of the handshake we are. Fixed for the
// session's lifetime.
type SessionRole int

const (
	RoleInitiator SessionRole = iota
	RoleResponder
)

// String returns "initiator" or "responder".
func (r SessionRole) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// LLTBlockMicros is the duration of one Link Loss Timeout block in
// microseconds. The LLT attribute counts these blocks.
const LLTBlockMicros = 32

// FstSession is the per-peer FST protocol state. Exactly one exists per
// peer address at any time; a new setup for the same peer overwrites it.
type FstSession struct {
	ID         uint32
	Role       SessionRole
	State      SessionState
	TargetBand BandID
	LLT        uint32 // link loss timeout, in 32µs blocks; 0 = switch immediately

	// TimerID is the handle of the pending link-loss expiry event, or zero
	// when none is armed. At most one is live at a time.
	TimerID uint64
}

// StationType distinguishes the two association-state migration variants.
type StationType int

const (
	StationClient      StationType = iota // infrastructure client (STA)
	StationCoordinator                    // infrastructure coordinator (AP)
)

// String returns "client" or "coordinator".
func (t StationType) String() string {
	if t == StationCoordinator {
		return "coordinator"
	}
	return "client"
}

// LinkState is the client-side association state copied verbatim onto the
// new stack during a band switch.
type LinkState int

const (
	LinkDown LinkState = iota
	LinkAssociating
	LinkUp
)

// String returns the link state name.
func (l LinkState) String() string {
	switch l {
	case LinkAssociating:
		return "associating"
	case LinkUp:
		return "up"
	default:
		return "down"
	}
}
