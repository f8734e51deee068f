// Package fst implements the Fast Session Transfer protocol: the per-peer
// session table and the state machine that negotiates, confirms and tears
// down a band switch over the four-frame handshake.
package fst

import (
	"fmt"
	"log"

	"github.com/lcalzada-xor/fstsim/internal/adapters/codec"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// Sender transmits an encoded FST action frame to a peer over the device's
// active stack.
type Sender func(to domain.MacAddr, payload []byte)

// AcceptFunc decides the status code for an inbound Setup Request. Zero
// accepts; any other value rejects with that reason code.
type AcceptFunc func(peer domain.MacAddr, req codec.SetupRequest) uint16

// Observer is notified of every session event the engine produces, for
// audit logging and live streams.
type Observer func(peer domain.MacAddr, event string, sess domain.FstSession)

// Config wires an Engine to its collaborators.
type Config struct {
	Address   domain.MacAddr
	Scheduler ports.Scheduler
	Switcher  ports.BandSwitcher
	Send      Sender
	// ActiveBand reports the band of the currently active stack, used as
	// the "old band" descriptor of outgoing Setup Requests.
	ActiveBand func() domain.BandID
	// MultiBand builds the optional other-band capability descriptor for a
	// target band. May be nil.
	MultiBand func(target domain.BandID) *codec.MultiBand
	// Accept decides inbound Setup Requests. Nil accepts everything.
	Accept AcceptFunc
	// Observe receives session events. May be nil.
	Observe Observer
}

// Engine drives the FST state machine for every peer of one device. All
// entry points run on the single-threaded event loop; a driving event is
// processed to completion before the next one is dequeued.
type Engine struct {
	addr     domain.MacAddr
	table    *SessionTable
	switcher ports.BandSwitcher
	send     Sender

	activeBand func() domain.BandID
	multiBand  func(target domain.BandID) *codec.MultiBand
	accept     AcceptFunc
	observe    Observer

	nextToken uint8
}

// NewEngine builds the protocol engine for one device.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		addr:       cfg.Address,
		table:      NewTable(cfg.Scheduler),
		switcher:   cfg.Switcher,
		send:       cfg.Send,
		activeBand: cfg.ActiveBand,
		multiBand:  cfg.MultiBand,
		accept:     cfg.Accept,
		observe:    cfg.Observe,
	}
}

// Table exposes the session table for inspection (web API, tests).
func (e *Engine) Table() *SessionTable {
	return e.table
}

// Session returns a snapshot of the session for peer.
func (e *Engine) Session(peer domain.MacAddr) (domain.FstSession, bool) {
	sess, ok := e.table.Get(peer)
	if !ok {
		return domain.FstSession{}, false
	}
	return *sess, true
}

func (e *Engine) emit(peer domain.MacAddr, event string, sess *domain.FstSession) {
	if e.observe == nil {
		return
	}
	var snap domain.FstSession
	if sess != nil {
		snap = *sess
	}
	e.observe(peer, event, snap)
}

// StartTransfer begins an FST handshake towards peer: it installs a fresh
// initiator-role session and sends the Setup Request. An existing session
// for the peer is overwritten.
func (e *Engine) StartTransfer(peer domain.MacAddr, target domain.BandID, llt uint32) error {
	if _, err := domain.StandardForBand(target); err != nil {
		return err
	}
	sess := e.table.CreateInitiator(peer, target, llt)
	e.nextToken++

	req := codec.SetupRequest{
		DialogToken: e.nextToken,
		LLT:         llt,
		Transition: codec.SessionTransition{
			FstsID:  sess.ID,
			Control: codec.SessionControl(codec.SessionTypeInfrastructureBSS, false),
			NewBand: codec.Band{ID: target, Setup: 1, Operation: 1},
			OldBand: codec.Band{ID: e.activeBand(), Setup: 1, Operation: 1},
		},
	}
	if e.multiBand != nil {
		req.MultiBand = e.multiBand(target)
	}
	payload, err := codec.Encode(req)
	if err != nil {
		return err
	}
	log.Printf("[%s] FST initiator: setup request to %s (band=%s llt=%d id=%d)",
		e.addr, peer, target, llt, sess.ID)
	e.emit(peer, "setup_request_tx", sess)
	e.send(peer, payload)
	return nil
}

// HandleAction processes an inbound FST action frame from a peer. A frame
// that is not valid for the peer's current session state fails with
// ErrProtocolViolation; a frame that cannot be decoded fails with
// ErrMalformedFrame and mutates nothing.
func (e *Engine) HandleAction(from domain.MacAddr, payload []byte) error {
	action, err := codec.Decode(payload)
	if err != nil {
		return err
	}
	switch v := action.(type) {
	case codec.SetupRequest:
		return e.onSetupRequest(from, v)
	case codec.SetupResponse:
		return e.onSetupResponse(from, v)
	case codec.AckRequest:
		return e.onAckRequest(from, v)
	case codec.AckResponse:
		return e.onAckResponse(from, v)
	case codec.TearDown:
		return e.onTearDown(from, v)
	default:
		return fmt.Errorf("%w: unhandled action %T", domain.ErrProtocolViolation, action)
	}
}

func (e *Engine) onSetupRequest(from domain.MacAddr, req codec.SetupRequest) error {
	// Simultaneous bidirectional FST: both sides initiated towards each
	// other. The numerically lower address keeps the initiator role; the
	// other side abandons its own attempt and answers as responder.
	if existing, ok := e.table.Get(from); ok &&
		existing.Role == domain.RoleInitiator && existing.State == domain.StateInitial {
		if e.addr < from {
			log.Printf("[%s] FST: concurrent setup from %s ignored (local attempt wins tie-break)", e.addr, from)
			return nil
		}
		log.Printf("[%s] FST: concurrent setup from %s adopted (peer wins tie-break)", e.addr, from)
	}

	status := uint16(0)
	if e.accept != nil {
		status = e.accept(from, req)
	}
	if status == 0 {
		sess := e.table.CreateResponder(from, req.Transition.FstsID, req.Transition.NewBand.ID, req.LLT)
		log.Printf("[%s] FST responder: setup request from %s (band=%s llt=%d id=%d)",
			e.addr, from, sess.TargetBand, sess.LLT, sess.ID)
		e.emit(from, "setup_request_rx", sess)
	} else {
		log.Printf("[%s] FST responder: rejecting setup from %s (status=%d)", e.addr, from, status)
		e.emit(from, "setup_request_rejected", nil)
	}

	resp := codec.SetupResponse{
		DialogToken: req.DialogToken,
		Status:      status,
		Transition:  req.Transition,
	}
	payload, err := codec.Encode(resp)
	if err != nil {
		return err
	}
	e.send(from, payload)
	return nil
}

func (e *Engine) onSetupResponse(from domain.MacAddr, resp codec.SetupResponse) error {
	sess, ok := e.table.Get(from)
	if !ok || sess.Role != domain.RoleInitiator {
		return fmt.Errorf("%w: setup response from %s without initiated session", domain.ErrProtocolViolation, from)
	}
	if sess.State != domain.StateInitial {
		return fmt.Errorf("%w: setup response from %s in state %s", domain.ErrProtocolViolation, from, sess.State)
	}
	if resp.Status != 0 {
		// Recoverable: abandon the attempt, arm nothing, switch nothing.
		e.table.Reset(from)
		e.emit(from, "setup_rejected", sess)
		return fmt.Errorf("%w: peer %s status %d", domain.ErrSetupRejected, from, resp.Status)
	}
	e.emit(from, "setup_response_rx", sess)
	if sess.LLT == 0 {
		return e.switchNow(from, sess)
	}
	sess.State = domain.StateSetupCompletion
	e.armLinkLossTimer(from)
	e.emit(from, "link_loss_armed", sess)
	return nil
}

func (e *Engine) onAckRequest(from domain.MacAddr, req codec.AckRequest) error {
	sess, ok := e.table.Get(from)
	if !ok || sess.State != domain.StateTransitionDone {
		return fmt.Errorf("%w: ack request from %s with no transition in progress", domain.ErrProtocolViolation, from)
	}
	log.Printf("[%s] FST responder: ack request from %s (id=%d), sending ack response", e.addr, from, req.FstsID)
	e.emit(from, "ack_request_rx", sess)
	payload, err := codec.Encode(codec.AckResponse{DialogToken: req.DialogToken, FstsID: req.FstsID})
	if err != nil {
		return err
	}
	e.send(from, payload)
	return nil
}

func (e *Engine) onAckResponse(from domain.MacAddr, resp codec.AckResponse) error {
	sess, ok := e.table.Get(from)
	if !ok || sess.Role != domain.RoleInitiator || sess.State != domain.StateTransitionDone {
		return fmt.Errorf("%w: ack response from %s with no transition done", domain.ErrProtocolViolation, from)
	}
	sess.State = domain.StateTransitionConfirmed
	log.Printf("[%s] FST initiator: ack response from %s (id=%d), transition confirmed", e.addr, from, resp.FstsID)
	e.emit(from, "transition_confirmed", sess)
	return nil
}

func (e *Engine) onTearDown(from domain.MacAddr, td codec.TearDown) error {
	sess, ok := e.table.Get(from)
	if !ok {
		// Already quiescent; a teardown is valid in any state.
		return nil
	}
	e.table.Reset(from)
	log.Printf("[%s] FST: session %d with %s torn down by peer", e.addr, td.FstsID, from)
	e.emit(from, "teardown_rx", sess)
	return nil
}

// ConfirmAction processes the transmission confirmation of a previously
// sent action frame: the Setup Response ack drives the responder forward,
// the Ack Response ack closes the handshake.
func (e *Engine) ConfirmAction(to domain.MacAddr, payload []byte) error {
	action, err := codec.Decode(payload)
	if err != nil {
		return err
	}
	switch v := action.(type) {
	case codec.SetupResponse:
		if v.Status != 0 {
			// A rejection was delivered; nothing to progress.
			return nil
		}
		sess, ok := e.table.Get(to)
		if !ok || sess.Role != domain.RoleResponder || sess.State != domain.StateInitial {
			return fmt.Errorf("%w: setup response to %s confirmed without responder session", domain.ErrProtocolViolation, to)
		}
		e.emit(to, "setup_response_acked", sess)
		if sess.LLT == 0 {
			return e.switchNow(to, sess)
		}
		sess.State = domain.StateSetupCompletion
		e.armLinkLossTimer(to)
		e.emit(to, "link_loss_armed", sess)
		return nil
	case codec.AckResponse:
		sess, ok := e.table.Get(to)
		if !ok || sess.Role != domain.RoleResponder || sess.State != domain.StateTransitionDone {
			return fmt.Errorf("%w: ack response to %s confirmed without transition done", domain.ErrProtocolViolation, to)
		}
		sess.State = domain.StateTransitionConfirmed
		log.Printf("[%s] FST responder: ack response delivered to %s, transition confirmed", e.addr, to)
		e.emit(to, "transition_confirmed", sess)
		return nil
	default:
		// Confirmations of other FST frames carry no transition.
		return nil
	}
}

// NotifyDataTx refreshes the link-loss countdown after a successful data
// transmission to peer: traffic on the old band proves the link is alive,
// so the grace period restarts in full.
func (e *Engine) NotifyDataTx(peer domain.MacAddr) {
	e.refreshLinkLoss(peer)
}

// NotifyDataRx refreshes the link-loss countdown after a successful data
// reception from peer.
func (e *Engine) NotifyDataRx(peer domain.MacAddr) {
	e.refreshLinkLoss(peer)
}

func (e *Engine) refreshLinkLoss(peer domain.MacAddr) {
	sess, ok := e.table.Get(peer)
	if !ok || sess.State != domain.StateSetupCompletion || sess.TimerID == 0 {
		return
	}
	e.armLinkLossTimer(peer)
	e.emit(peer, "link_loss_refreshed", sess)
}

// Teardown terminates the session with peer locally and tells the peer.
func (e *Engine) Teardown(peer domain.MacAddr) error {
	sess, ok := e.table.Get(peer)
	if !ok {
		return nil
	}
	payload, err := codec.Encode(codec.TearDown{FstsID: sess.ID})
	if err != nil {
		return err
	}
	e.table.Reset(peer)
	log.Printf("[%s] FST: tearing down session %d with %s", e.addr, sess.ID, peer)
	e.emit(peer, "teardown_tx", sess)
	e.send(peer, payload)
	return nil
}

// BandChanged is the new stack's notification that the migration for peer
// completed. The initiator validates the new band by sending the Ack
// Request there.
func (e *Engine) BandChanged(standard domain.PhyStandard, peer domain.MacAddr, isInitiator bool) {
	if !isInitiator {
		return
	}
	sess, ok := e.table.Get(peer)
	if !ok {
		log.Printf("[%s] FST: band changed for unknown session with %s", e.addr, peer)
		return
	}
	e.nextToken++
	payload, err := codec.Encode(codec.AckRequest{DialogToken: e.nextToken, FstsID: sess.ID})
	if err != nil {
		log.Printf("[%s] FST: encoding ack request failed: %v", e.addr, err)
		return
	}
	log.Printf("[%s] FST initiator: band changed to %s, sending ack request to %s", e.addr, standard, peer)
	e.emit(peer, "ack_request_tx", sess)
	e.send(peer, payload)
}

func (e *Engine) armLinkLossTimer(peer domain.MacAddr) {
	e.table.ArmTimer(peer, func() {
		sess, ok := e.table.Get(peer)
		if !ok || sess.State != domain.StateSetupCompletion {
			return
		}
		log.Printf("[%s] FST: link loss countdown expired for %s, switching band", e.addr, peer)
		e.emit(peer, "link_loss_expired", sess)
		if err := e.switchNow(peer, sess); err != nil {
			log.Printf("[%s] FST: band switch for %s failed: %v", e.addr, peer, err)
		}
	})
}

// switchNow performs the cut-over: the session advances to transition done
// and the migrator moves the peer's resources to the target stack. On the
// initiator the migration's band-changed notification then sends the Ack
// Request on the new band.
func (e *Engine) switchNow(peer domain.MacAddr, sess *domain.FstSession) error {
	standard, err := domain.StandardForBand(sess.TargetBand)
	if err != nil {
		return err
	}
	prev := sess.State
	sess.State = domain.StateTransitionDone
	if err := e.switcher.SwitchBand(peer, standard, sess.Role == domain.RoleInitiator); err != nil {
		// Aborted switch: session and active stack stay as they were.
		sess.State = prev
		return err
	}
	e.emit(peer, "transition_done", sess)
	return nil
}
