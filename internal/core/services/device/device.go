// Package device assembles one multi-band station: the technology
// registry, the FST protocol engine and the band-switch migrator, wired to
// the simulated medium and the observability adapters.
package device

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/fstsim/internal/adapters/codec"
	"github.com/lcalzada-xor/fstsim/internal/adapters/mac"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
	"github.com/lcalzada-xor/fstsim/internal/core/services/fst"
	"github.com/lcalzada-xor/fstsim/internal/core/services/migrate"
	"github.com/lcalzada-xor/fstsim/internal/core/services/registry"
	"github.com/lcalzada-xor/fstsim/internal/telemetry"
)

// Option configures optional collaborators of a device.
type Option func(*MultiBandDevice)

// WithTrace attaches a frame trace sink (the pcap writer).
func WithTrace(sink ports.TraceSink) Option {
	return func(d *MultiBandDevice) { d.trace = sink }
}

// WithStorage attaches the transition audit store.
func WithStorage(store ports.Storage) Option {
	return func(d *MultiBandDevice) { d.storage = store }
}

// WithPublisher attaches a live event publisher.
func WithPublisher(pub ports.EventPublisher) Option {
	return func(d *MultiBandDevice) { d.publisher = pub }
}

// WithRunID overrides the generated run identifier on audit records.
func WithRunID(id string) Option {
	return func(d *MultiBandDevice) { d.runID = id }
}

// WithAcceptPolicy sets the status code returned for inbound setup
// requests. The default accepts everything.
func WithAcceptPolicy(accept fst.AcceptFunc) Option {
	return func(d *MultiBandDevice) { d.accept = accept }
}

// WithForward sets the up-stack delivery callback for received data frames.
func WithForward(fn func(f domain.Frame)) Option {
	return func(d *MultiBandDevice) { d.forward = fn }
}

// MultiBandDevice is one station capable of operating over several radio
// technologies and migrating sessions between them.
type MultiBandDevice struct {
	addr   domain.MacAddr
	sched  ports.Scheduler
	medium ports.Medium

	registry *registry.TechnologyRegistry
	engine   *fst.Engine
	migrator *migrate.Migrator

	trace     ports.TraceSink
	storage   ports.Storage
	publisher ports.EventPublisher
	forward   func(f domain.Frame)
	accept    fst.AcceptFunc
	runID     string
}

// New builds a device. Technologies are added with AddTechnology before
// Start attaches the device to the medium.
func New(addr domain.MacAddr, sched ports.Scheduler, medium ports.Medium, opts ...Option) *MultiBandDevice {
	d := &MultiBandDevice{
		addr:     addr,
		sched:    sched,
		medium:   medium,
		registry: registry.New(),
		runID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.migrator = migrate.New(addr, d.registry, d.bandChanged)
	d.engine = fst.NewEngine(fst.Config{
		Address:    addr,
		Scheduler:  sched,
		Switcher:   d.migrator,
		Send:       d.sendAction,
		ActiveBand: func() domain.BandID { return d.registry.Active().Phy.Band() },
		MultiBand:  d.multiBandDescriptor,
		Accept:     d.acceptSetup,
		Observe:    d.observe,
	})
	return d
}

// Address returns the device MAC address, shared by all its stacks.
func (d *MultiBandDevice) Address() domain.MacAddr {
	return d.addr
}

// AddTechnology registers a complete stack (MAC, PHY, rate controller) for
// one standard. The first registered technology becomes active.
func (d *MultiBandDevice) AddTechnology(standard domain.PhyStandard, stationType domain.StationType, operational bool) error {
	return d.registry.Register(standard,
		mac.NewStack(d.addr, stationType),
		mac.NewPhy(standard),
		mac.NewRateController(),
		operational)
}

// Start seals the configuration and attaches the device to the medium.
func (d *MultiBandDevice) Start() error {
	if d.registry.Active() == nil {
		return fmt.Errorf("device %s: no technology registered", d.addr)
	}
	d.registry.Seal()
	d.medium.Attach(d)
	return nil
}

// Registry exposes the technology registry (read-mostly; used by the web
// adapter and tests).
func (d *MultiBandDevice) Registry() *registry.TechnologyRegistry {
	return d.registry
}

// Engine exposes the FST protocol engine.
func (d *MultiBandDevice) Engine() *fst.Engine {
	return d.engine
}

// ActiveStandard returns the standard of the active stack.
func (d *MultiBandDevice) ActiveStandard() domain.PhyStandard {
	return d.registry.ActiveStandard()
}

// Sessions returns a snapshot of every FST session on this device.
func (d *MultiBandDevice) Sessions() map[domain.MacAddr]domain.FstSession {
	return d.engine.Table().Snapshot()
}

// EstablishSession begins an FST handshake towards peer for the target
// band with the given link-loss timeout (in 32µs blocks).
func (d *MultiBandDevice) EstablishSession(peer domain.MacAddr, target domain.BandID, llt uint32) error {
	return d.engine.StartTransfer(peer, target, llt)
}

// TeardownSession terminates the FST session with peer.
func (d *MultiBandDevice) TeardownSession(peer domain.MacAddr) error {
	return d.engine.Teardown(peer)
}

// Send enqueues a data frame for peer on the active stack.
func (d *MultiBandDevice) Send(peer domain.MacAddr, ac domain.AccessCategory, payload []byte) {
	frame := domain.Frame{Src: d.addr, Dst: peer, AC: ac, Payload: payload}
	d.registry.Active().Mac.Queue(ac).Enqueue(frame)
}

// TransmitNext dequeues the head frame of the given access category on the
// active stack and transmits it. Returns false when the queue is empty.
func (d *MultiBandDevice) TransmitNext(ac domain.AccessCategory) bool {
	entry := d.registry.Active()
	frame, ok := entry.Mac.Queue(ac).Dequeue()
	if !ok {
		return false
	}
	standard := entry.Standard
	d.recordFrame(standard, frame)
	d.medium.Transmit(standard, frame, func(ok bool) {
		if ok {
			// A successful data exchange proves the old link is alive.
			d.engine.NotifyDataTx(frame.Dst)
		}
	})
	return true
}

// DeliverFrame is the medium's receive path.
func (d *MultiBandDevice) DeliverFrame(standard domain.PhyStandard, f domain.Frame) {
	if f.Management {
		telemetry.ActionFrames.WithLabelValues(string(d.addr), subtypeOf(f.Payload), "rx").Inc()
		if err := d.engine.HandleAction(f.Src, f.Payload); err != nil {
			// Protocol violations and rejections must surface, not vanish.
			log.Printf("[%s] FST error handling frame from %s: %v", d.addr, f.Src, err)
			d.record(f.Src, "error", "", err.Error())
		}
		return
	}
	d.engine.NotifyDataRx(f.Src)
	if d.forward != nil {
		d.forward(f)
	}
}

// sendAction transmits an FST action frame over the active stack and feeds
// the delivery confirmation back into the engine.
func (d *MultiBandDevice) sendAction(to domain.MacAddr, payload []byte) {
	entry := d.registry.Active()
	frame := domain.Frame{Src: d.addr, Dst: to, AC: domain.ACVoice, Payload: payload, Management: true}
	telemetry.ActionFrames.WithLabelValues(string(d.addr), subtypeOf(payload), "tx").Inc()
	d.recordFrame(entry.Standard, frame)
	d.medium.Transmit(entry.Standard, frame, func(ok bool) {
		if !ok {
			log.Printf("[%s] action frame to %s lost", d.addr, to)
			return
		}
		if err := d.engine.ConfirmAction(to, payload); err != nil {
			log.Printf("[%s] FST error confirming frame to %s: %v", d.addr, to, err)
			d.record(to, "error", "", err.Error())
		}
	})
}

// bandChanged runs after the migrator finished moving a peer's resources.
func (d *MultiBandDevice) bandChanged(standard domain.PhyStandard, peer domain.MacAddr, isInitiator bool) {
	d.record(peer, "band_switch", "", standard.String())
	d.engine.BandChanged(standard, peer, isInitiator)
}

// multiBandDescriptor advertises the capabilities of the stack serving the
// target band, when one is registered.
func (d *MultiBandDevice) multiBandDescriptor(target domain.BandID) *codec.MultiBand {
	standard, err := domain.StandardForBand(target)
	if err != nil {
		return nil
	}
	entry, err := d.registry.Lookup(standard)
	if err != nil {
		return nil
	}
	bssid := entry.Mac.BSSID()
	if bssid == "" {
		bssid = d.addr
	}
	return &codec.MultiBand{
		BandID: target,
		BSSID:  bssid,
	}
}

func (d *MultiBandDevice) acceptSetup(peer domain.MacAddr, req codec.SetupRequest) uint16 {
	if d.accept != nil {
		return d.accept(peer, req)
	}
	return 0
}

// observe translates engine events into metrics and audit records.
func (d *MultiBandDevice) observe(peer domain.MacAddr, event string, sess domain.FstSession) {
	switch event {
	case "setup_request_tx":
		telemetry.SessionsStarted.WithLabelValues(string(d.addr), "initiator").Inc()
	case "setup_request_rx":
		telemetry.SessionsStarted.WithLabelValues(string(d.addr), "responder").Inc()
	case "transition_confirmed":
		telemetry.SessionsConfirmed.WithLabelValues(string(d.addr)).Inc()
	case "setup_rejected":
		telemetry.SetupsRejected.WithLabelValues(string(d.addr)).Inc()
	}
	d.record(peer, event, sess.State.String(), sess.TargetBand.String())
}

func (d *MultiBandDevice) record(peer domain.MacAddr, event, state, detail string) {
	rec := domain.TransitionRecord{
		RunID:   d.runID,
		SimTime: d.sched.Now(),
		Device:  d.addr,
		Peer:    peer,
		Event:   event,
		State:   state,
		Detail:  detail,
	}
	if d.storage != nil {
		if err := d.storage.SaveTransition(rec); err != nil {
			log.Printf("[%s] audit save failed: %v", d.addr, err)
		}
	}
	if d.publisher != nil {
		d.publisher.Publish(rec)
	}
}

func (d *MultiBandDevice) recordFrame(standard domain.PhyStandard, f domain.Frame) {
	if d.trace == nil {
		return
	}
	if err := d.trace.RecordFrame(d.sched.Now(), standard, f); err != nil {
		log.Printf("[%s] trace write failed: %v", d.addr, err)
	}
}

func subtypeOf(payload []byte) string {
	if len(payload) < 2 {
		return "unknown"
	}
	return codec.SubtypeName(payload[1])
}

var _ ports.FrameReceiver = (*MultiBandDevice)(nil)
