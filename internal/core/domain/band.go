package domain

import "fmt"

// BandID identifies a frequency band using the 802.11 Band ID enumeration
// carried in Session Transition and Multi-band elements.
type BandID uint8

const (
	Band2_4GHz BandID = 2
	Band4_9GHz BandID = 4
	Band60GHz  BandID = 5
)

// String returns a human readable band name.
func (b BandID) String() string {
	switch b {
	case Band2_4GHz:
		return "2.4GHz"
	case Band4_9GHz:
		return "4.9GHz"
	case Band60GHz:
		return "60GHz"
	default:
		return fmt.Sprintf("band(%d)", uint8(b))
	}
}

// PhyStandard identifies one complete radio technology (PHY+MAC+rate control).
type PhyStandard int

const (
	StandardUnknown PhyStandard = iota
	Standard80211ad             // 60 GHz directional (DMG)
	Standard80211n5GHz
	Standard80211n2_4GHz
)

// String returns the standard name as commonly written.
func (s PhyStandard) String() string {
	switch s {
	case Standard80211ad:
		return "802.11ad"
	case Standard80211n5GHz:
		return "802.11n-5GHz"
	case Standard80211n2_4GHz:
		return "802.11n-2.4GHz"
	default:
		return "unknown"
	}
}

// Band returns the frequency band a standard operates in.
func (s PhyStandard) Band() BandID {
	switch s {
	case Standard80211ad:
		return Band60GHz
	case Standard80211n5GHz:
		return Band4_9GHz
	case Standard80211n2_4GHz:
		return Band2_4GHz
	default:
		return 0
	}
}

// StandardForBand maps a Band ID back to the technology operating in it.
func StandardForBand(b BandID) (PhyStandard, error) {
	switch b {
	case Band60GHz:
		return Standard80211ad, nil
	case Band4_9GHz:
		return Standard80211n5GHz, nil
	case Band2_4GHz:
		return Standard80211n2_4GHz, nil
	default:
		return StandardUnknown, fmt.Errorf("%w: no technology for %s", ErrUnknownStandard, b)
	}
}
