package mac

import (
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// RateController is a minimal rate-control collaborator: it only tracks
// which peers have a successful association on record, which is what the
// coordinator-role migration path needs.
type RateController struct {
	associated map[domain.MacAddr]bool
}

// NewRateController returns an empty controller.
func NewRateController() *RateController {
	return &RateController{associated: make(map[domain.MacAddr]bool)}
}

// RecordSuccessfulAssociation marks peer as having associated successfully.
func (r *RateController) RecordSuccessfulAssociation(peer domain.MacAddr) {
	r.associated[peer] = true
}

// HasSuccessfulAssociation reports whether peer associated successfully.
func (r *RateController) HasSuccessfulAssociation(peer domain.MacAddr) bool {
	return r.associated[peer]
}

var _ ports.RateController = (*RateController)(nil)
