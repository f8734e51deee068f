package fst

import (
	"time"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// SessionTable owns the per-peer FST sessions of one device, including
// their link-loss timers. Exactly one session exists per peer address; a
// new setup for the same peer overwrites the previous session.
type SessionTable struct {
	sched    ports.Scheduler
	sessions map[domain.MacAddr]*domain.FstSession
	nextID   uint32
}

// NewTable returns an empty session table driven by sched.
func NewTable(sched ports.Scheduler) *SessionTable {
	return &SessionTable{
		sched:    sched,
		sessions: make(map[domain.MacAddr]*domain.FstSession),
	}
}

// CreateInitiator installs a fresh initiator-role session for peer with a
// newly allocated monotonic session id.
func (t *SessionTable) CreateInitiator(peer domain.MacAddr, band domain.BandID, llt uint32) *domain.FstSession {
	t.CancelTimer(peer)
	t.nextID++
	sess := &domain.FstSession{
		ID:         t.nextID,
		Role:       domain.RoleInitiator,
		State:      domain.StateInitial,
		TargetBand: band,
		LLT:        llt,
	}
	t.sessions[peer] = sess
	return sess
}

// CreateResponder installs a responder-role session for peer, adopting the
// peer-supplied session id.
func (t *SessionTable) CreateResponder(peer domain.MacAddr, id uint32, band domain.BandID, llt uint32) *domain.FstSession {
	t.CancelTimer(peer)
	sess := &domain.FstSession{
		ID:         id,
		Role:       domain.RoleResponder,
		State:      domain.StateInitial,
		TargetBand: band,
		LLT:        llt,
	}
	t.sessions[peer] = sess
	return sess
}

// Get returns the session for peer, if any.
func (t *SessionTable) Get(peer domain.MacAddr) (*domain.FstSession, bool) {
	sess, ok := t.sessions[peer]
	return sess, ok
}

// Reset cancels any pending timer and returns the session to the initial
// state (the teardown transition).
func (t *SessionTable) Reset(peer domain.MacAddr) {
	sess, ok := t.sessions[peer]
	if !ok {
		return
	}
	t.CancelTimer(peer)
	sess.State = domain.StateInitial
}

// Remove deletes the session for peer entirely.
func (t *SessionTable) Remove(peer domain.MacAddr) {
	t.CancelTimer(peer)
	delete(t.sessions, peer)
}

// ArmTimer (re)arms the link-loss timer for peer's session: any live timer
// is cancelled first, then a fresh expiry is scheduled after the session's
// full LLT. The handle is cleared before fn runs, so a fired timer is never
// cancellable.
func (t *SessionTable) ArmTimer(peer domain.MacAddr, fn func()) {
	sess, ok := t.sessions[peer]
	if !ok {
		return
	}
	t.CancelTimer(peer)
	after := time.Duration(sess.LLT) * domain.LLTBlockMicros * time.Microsecond
	sess.TimerID = t.sched.Schedule(after, func() {
		sess.TimerID = 0
		fn()
	})
}

// CancelTimer cancels a pending link-loss timer. Idempotent.
func (t *SessionTable) CancelTimer(peer domain.MacAddr) {
	sess, ok := t.sessions[peer]
	if !ok || sess.TimerID == 0 {
		return
	}
	t.sched.Cancel(sess.TimerID)
	sess.TimerID = 0
}

// TimerRunning reports whether peer's session has a live link-loss timer.
func (t *SessionTable) TimerRunning(peer domain.MacAddr) bool {
	sess, ok := t.sessions[peer]
	return ok && sess.TimerID != 0
}

// Snapshot returns a copy of every session keyed by peer address.
func (t *SessionTable) Snapshot() map[domain.MacAddr]domain.FstSession {
	out := make(map[domain.MacAddr]domain.FstSession, len(t.sessions))
	for peer, sess := range t.sessions {
		out[peer] = *sess
	}
	return out
}
