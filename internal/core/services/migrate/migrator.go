// Package migrate implements the band-switch migration: moving one peer's
// in-flight transmit queues, block-ack agreements and association state
// from the old active technology stack to the new one.
package migrate

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/services/registry"
	"github.com/lcalzada-xor/fstsim/internal/telemetry"
)

// BandChangedFunc is invoked on the new stack once migration completes.
// On the initiator side this is what triggers the Ack Request on the new
// band.
type BandChangedFunc func(standard domain.PhyStandard, peer domain.MacAddr, isInitiator bool)

// Migrator executes the atomic per-peer hand-off between two technology
// entries of one device. It runs on the single-threaded event loop, so the
// queue/agreement/association steps cannot be observed partially applied.
type Migrator struct {
	device        domain.MacAddr
	registry      *registry.TechnologyRegistry
	onBandChanged BandChangedFunc
}

// New builds a migrator for one device.
func New(device domain.MacAddr, reg *registry.TechnologyRegistry, onBandChanged BandChangedFunc) *Migrator {
	return &Migrator{device: device, registry: reg, onBandChanged: onBandChanged}
}

// SwitchBand moves peer's resources from the active stack to newStandard's
// stack, activates it and fires the band-changed notification. If the
// target stack is unknown or not operational nothing is mutated.
func (m *Migrator) SwitchBand(peer domain.MacAddr, newStandard domain.PhyStandard, isInitiator bool) error {
	oldEntry := m.registry.Active()
	newEntry, err := m.registry.Lookup(newStandard)
	if err != nil {
		return err
	}
	if !newEntry.Operational {
		return fmt.Errorf("%w: %s", domain.ErrStackUnavailable, newStandard)
	}
	if oldEntry == newEntry {
		return fmt.Errorf("%w: %s is already active", domain.ErrStackUnavailable, newStandard)
	}

	_, span := otel.Tracer("fstsim/migrate").Start(context.Background(), "switch_band")
	span.SetAttributes(
		attribute.String("device", string(m.device)),
		attribute.String("peer", string(peer)),
		attribute.String("from", oldEntry.Standard.String()),
		attribute.String("to", newStandard.String()),
	)
	defer span.End()

	if err := m.registry.Activate(newStandard); err != nil {
		return err
	}

	// Partition-and-move the queued frames for this peer, per category.
	moved := 0
	for _, ac := range domain.AccessCategories {
		frames := oldEntry.Mac.Queue(ac).DequeueFor(peer)
		dst := newEntry.Mac.Queue(ac)
		for _, f := range frames {
			dst.Enqueue(f)
		}
		moved += len(frames)
	}

	// Agreements are copied, not moved: the old stack may still need to
	// flush in-flight acknowledgments.
	for _, ac := range domain.AccessCategories {
		if agreement, ok := oldEntry.Mac.Queue(ac).Agreement(peer); ok {
			newEntry.Mac.Queue(ac).InstallAgreement(agreement)
		}
	}

	switch newEntry.Mac.StationType() {
	case domain.StationClient:
		newEntry.Mac.SetBSSID(oldEntry.Mac.BSSID())
		newEntry.Mac.SetLinkState(oldEntry.Mac.LinkState())
	case domain.StationCoordinator:
		// A coordinator keeps no per-association link state; the peer's
		// prior association is recorded on the new rate controller instead.
		newEntry.Rate.RecordSuccessfulAssociation(peer)
	}

	telemetry.BandSwitches.WithLabelValues(string(m.device), newStandard.String()).Inc()
	telemetry.FramesMigrated.WithLabelValues(string(m.device)).Add(float64(moved))
	log.Printf("[%s] switched band to %s for %s (%d frames moved, initiator=%v)",
		m.device, newStandard, peer, moved, isInitiator)

	if m.onBandChanged != nil {
		m.onBandChanged(newStandard, peer, isInitiator)
	}
	return nil
}
