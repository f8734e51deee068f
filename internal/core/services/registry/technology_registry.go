// Package registry keeps the per-device catalogue of radio technology
// stacks and tracks which one is currently active.
package registry

import (
	"fmt"
	"sort"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// TechnologyEntry is one registered radio technology: a complete
// MAC + PHY + rate-controller instance for one standard.
type TechnologyEntry struct {
	Standard    domain.PhyStandard
	Mac         ports.MacStack
	Phy         ports.PhyStack
	Rate        ports.RateController
	Operational bool
}

// TechnologyRegistry owns the technology entries of one device. Entries are
// created at configuration time and live for the device's lifetime;
// activation never removes an entry, it only moves the active pointer.
type TechnologyRegistry struct {
	entries map[domain.PhyStandard]*TechnologyEntry
	active  domain.PhyStandard
	wired   bool // true once the device is attached; registration is then closed
}

// New returns an empty registry.
func New() *TechnologyRegistry {
	return &TechnologyRegistry{entries: make(map[domain.PhyStandard]*TechnologyEntry)}
}

// Register adds or replaces the entry for a standard. Replacing the
// currently active entry after the device has been wired would leave the
// device without a valid active stack, so that case fails with
// ErrDuplicateRegistration.
func (r *TechnologyRegistry) Register(standard domain.PhyStandard, mac ports.MacStack, phy ports.PhyStack, rate ports.RateController, operational bool) error {
	if _, exists := r.entries[standard]; exists && r.wired && r.active == standard {
		return fmt.Errorf("%w: %s is the active stack", domain.ErrDuplicateRegistration, standard)
	}
	r.entries[standard] = &TechnologyEntry{
		Standard:    standard,
		Mac:         mac,
		Phy:         phy,
		Rate:        rate,
		Operational: operational,
	}
	// First registered technology becomes active by default.
	if len(r.entries) == 1 {
		r.active = standard
	}
	return nil
}

// Seal marks configuration as complete; further re-registration of the
// active stack is rejected.
func (r *TechnologyRegistry) Seal() {
	r.wired = true
}

// Activate makes standard's stack the device's active stack. It does not
// move any per-peer resources; that is the migrator's job and must happen
// around this call.
func (r *TechnologyRegistry) Activate(standard domain.PhyStandard) error {
	if _, ok := r.entries[standard]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownStandard, standard)
	}
	r.active = standard
	return nil
}

// Lookup returns the entry for a standard.
func (r *TechnologyRegistry) Lookup(standard domain.PhyStandard) (*TechnologyEntry, error) {
	entry, ok := r.entries[standard]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStandard, standard)
	}
	return entry, nil
}

// Active returns the currently active entry.
func (r *TechnologyRegistry) Active() *TechnologyEntry {
	return r.entries[r.active]
}

// ActiveStandard returns the standard of the active entry.
func (r *TechnologyRegistry) ActiveStandard() domain.PhyStandard {
	return r.active
}

// Standards lists the registered standards in stable order.
func (r *TechnologyRegistry) Standards() []domain.PhyStandard {
	out := make([]domain.PhyStandard, 0, len(r.entries))
	for s := range r.entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
