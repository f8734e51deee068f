package migrate

import (
	"testing"

	"github.com/lcalzada-xor/fstsim/internal/adapters/mac"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/services/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localAddr = domain.MacAddr("00:00:00:00:00:01")
	peerA     = domain.MacAddr("aa:aa:aa:aa:aa:01")
	peerB     = domain.MacAddr("aa:aa:aa:aa:aa:02")
)

type fixture struct {
	reg      *registry.TechnologyRegistry
	oldStack *mac.Stack
	newStack *mac.Stack
	newRate  *mac.RateController
}

func setup(t *testing.T, stationType domain.StationType, newOperational bool) *fixture {
	t.Helper()
	f := &fixture{
		reg:      registry.New(),
		oldStack: mac.NewStack(localAddr, stationType),
		newStack: mac.NewStack(localAddr, stationType),
		newRate:  mac.NewRateController(),
	}
	require.NoError(t, f.reg.Register(domain.Standard80211ad,
		f.oldStack, mac.NewPhy(domain.Standard80211ad), mac.NewRateController(), true))
	require.NoError(t, f.reg.Register(domain.Standard80211n5GHz,
		f.newStack, mac.NewPhy(domain.Standard80211n5GHz), f.newRate, newOperational))
	return f
}

func dataFrame(dst domain.MacAddr, ac domain.AccessCategory, tag byte) domain.Frame {
	return domain.Frame{Src: localAddr, Dst: dst, AC: ac, Payload: []byte{tag}}
}

func TestSwitchBand_MovesFramesCompletely(t *testing.T) {
	f := setup(t, domain.StationClient, true)

	f.oldStack.Queue(domain.ACBestEffort).Enqueue(dataFrame(peerA, domain.ACBestEffort, 1))
	f.oldStack.Queue(domain.ACBestEffort).Enqueue(dataFrame(peerA, domain.ACBestEffort, 2))
	f.oldStack.Queue(domain.ACVoice).Enqueue(dataFrame(peerA, domain.ACVoice, 3))

	m := New(localAddr, f.reg, nil)
	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, true))

	// Old stack holds nothing for the peer, new stack holds everything,
	// per-category order preserved.
	assert.Zero(t, f.oldStack.QueuedFor(peerA))
	be := f.newStack.Queue(domain.ACBestEffort).DequeueFor(peerA)
	require.Len(t, be, 2)
	assert.Equal(t, byte(1), be[0].Payload[0])
	assert.Equal(t, byte(2), be[1].Payload[0])
	vo := f.newStack.Queue(domain.ACVoice).DequeueFor(peerA)
	require.Len(t, vo, 1)
	assert.Equal(t, byte(3), vo[0].Payload[0])

	assert.Equal(t, domain.Standard80211n5GHz, f.reg.ActiveStandard())
}

func TestSwitchBand_LeavesOtherPeersUntouched(t *testing.T) {
	f := setup(t, domain.StationClient, true)

	f.oldStack.Queue(domain.ACBestEffort).Enqueue(dataFrame(peerA, domain.ACBestEffort, 1))
	f.oldStack.Queue(domain.ACBestEffort).Enqueue(dataFrame(peerB, domain.ACBestEffort, 2))

	m := New(localAddr, f.reg, nil)
	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, false))

	assert.Equal(t, 1, f.oldStack.QueuedFor(peerB))
	assert.Zero(t, f.newStack.QueuedFor(peerB))
}

func TestSwitchBand_CopiesAgreements(t *testing.T) {
	f := setup(t, domain.StationClient, true)

	f.oldStack.Queue(domain.ACVideo).InstallAgreement(domain.BlockAckAgreement{
		Peer: peerA, TID: 5, BufferSize: 64, StartSeq: 12,
	})

	m := New(localAddr, f.reg, nil)
	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, true))

	// Copied onto the new stack...
	a, ok := f.newStack.Queue(domain.ACVideo).Agreement(peerA)
	require.True(t, ok)
	assert.Equal(t, uint16(64), a.BufferSize)

	// ...but still present on the old one for in-flight acks.
	_, ok = f.oldStack.Queue(domain.ACVideo).Agreement(peerA)
	assert.True(t, ok)
}

func TestSwitchBand_ClientCopiesAssociationState(t *testing.T) {
	f := setup(t, domain.StationClient, true)
	f.oldStack.SetBSSID("bb:bb:bb:bb:bb:01")
	f.oldStack.SetLinkState(domain.LinkUp)

	m := New(localAddr, f.reg, nil)
	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, true))

	assert.Equal(t, domain.MacAddr("bb:bb:bb:bb:bb:01"), f.newStack.BSSID())
	assert.Equal(t, domain.LinkUp, f.newStack.LinkState())
}

func TestSwitchBand_CoordinatorRecordsAssociation(t *testing.T) {
	f := setup(t, domain.StationCoordinator, true)

	m := New(localAddr, f.reg, nil)
	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, false))

	assert.True(t, f.newRate.HasSuccessfulAssociation(peerA))
	// No link-state copy for a coordinator.
	assert.Equal(t, domain.LinkDown, f.newStack.LinkState())
}

func TestSwitchBand_UnknownStandard(t *testing.T) {
	f := setup(t, domain.StationClient, true)

	m := New(localAddr, f.reg, nil)
	err := m.SwitchBand(peerA, domain.Standard80211n2_4GHz, true)

	assert.ErrorIs(t, err, domain.ErrUnknownStandard)
	assert.Equal(t, domain.Standard80211ad, f.reg.ActiveStandard())
}

func TestSwitchBand_NotOperational(t *testing.T) {
	f := setup(t, domain.StationClient, false)
	f.oldStack.Queue(domain.ACBestEffort).Enqueue(dataFrame(peerA, domain.ACBestEffort, 1))

	m := New(localAddr, f.reg, nil)
	err := m.SwitchBand(peerA, domain.Standard80211n5GHz, true)

	assert.ErrorIs(t, err, domain.ErrStackUnavailable)
	// No mutation at all.
	assert.Equal(t, domain.Standard80211ad, f.reg.ActiveStandard())
	assert.Equal(t, 1, f.oldStack.QueuedFor(peerA))
}

func TestSwitchBand_FiresBandChanged(t *testing.T) {
	f := setup(t, domain.StationClient, true)

	var gotStandard domain.PhyStandard
	var gotPeer domain.MacAddr
	var gotInitiator bool
	m := New(localAddr, f.reg, func(s domain.PhyStandard, p domain.MacAddr, init bool) {
		gotStandard, gotPeer, gotInitiator = s, p, init
	})

	require.NoError(t, m.SwitchBand(peerA, domain.Standard80211n5GHz, true))
	assert.Equal(t, domain.Standard80211n5GHz, gotStandard)
	assert.Equal(t, peerA, gotPeer)
	assert.True(t, gotInitiator)
}
