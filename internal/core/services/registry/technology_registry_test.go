package registry

import (
	"testing"

	"github.com/lcalzada-xor/fstsim/internal/adapters/mac"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(t *testing.T, r *TechnologyRegistry, standard domain.PhyStandard, operational bool) {
	t.Helper()
	err := r.Register(standard,
		mac.NewStack("00:00:00:00:00:01", domain.StationClient),
		mac.NewPhy(standard),
		mac.NewRateController(),
		operational)
	require.NoError(t, err)
}

func TestRegistry_FirstRegisteredIsActive(t *testing.T) {
	r := New()
	newEntry(t, r, domain.Standard80211ad, true)
	newEntry(t, r, domain.Standard80211n5GHz, true)

	assert.Equal(t, domain.Standard80211ad, r.ActiveStandard())
	assert.Equal(t, domain.Standard80211ad, r.Active().Standard)
}

func TestRegistry_Activate(t *testing.T) {
	r := New()
	newEntry(t, r, domain.Standard80211ad, true)
	newEntry(t, r, domain.Standard80211n5GHz, true)

	require.NoError(t, r.Activate(domain.Standard80211n5GHz))
	assert.Equal(t, domain.Standard80211n5GHz, r.ActiveStandard())

	// Activation never removes entries.
	assert.Len(t, r.Standards(), 2)
}

func TestRegistry_Activate_Unknown(t *testing.T) {
	r := New()
	newEntry(t, r, domain.Standard80211ad, true)

	err := r.Activate(domain.Standard80211n2_4GHz)
	assert.ErrorIs(t, err, domain.ErrUnknownStandard)
	assert.Equal(t, domain.Standard80211ad, r.ActiveStandard())
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	r := New()
	_, err := r.Lookup(domain.Standard80211ad)
	assert.ErrorIs(t, err, domain.ErrUnknownStandard)
}

func TestRegistry_ReRegisterActiveAfterSeal(t *testing.T) {
	r := New()
	newEntry(t, r, domain.Standard80211ad, true)
	r.Seal()

	err := r.Register(domain.Standard80211ad,
		mac.NewStack("00:00:00:00:00:01", domain.StationClient),
		mac.NewPhy(domain.Standard80211ad),
		mac.NewRateController(),
		true)
	assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)

	// A non-active standard may still be replaced.
	newEntry(t, r, domain.Standard80211n5GHz, false)
}
