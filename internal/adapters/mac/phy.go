package mac

import (
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// Phy is the trivial PHY model: it knows which standard (and hence band)
// it operates in. Propagation is the medium adapter's concern.
type Phy struct {
	standard domain.PhyStandard
}

// NewPhy returns a PHY for the given standard.
func NewPhy(standard domain.PhyStandard) *Phy {
	return &Phy{standard: standard}
}

// Standard returns the radio standard this PHY implements.
func (p *Phy) Standard() domain.PhyStandard {
	return p.standard
}

// Band returns the frequency band the PHY operates in.
func (p *Phy) Band() domain.BandID {
	return p.standard.Band()
}

var _ ports.PhyStack = (*Phy)(nil)
