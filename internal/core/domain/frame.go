package domain

// MacAddr is a canonical lower-case MAC address (aa:bb:cc:dd:ee:ff).
type MacAddr string

// AccessCategory is an EDCA traffic priority class.
type AccessCategory int

const (
	ACBackground AccessCategory = iota // AC_BK
	ACBestEffort                       // AC_BE
	ACVideo                            // AC_VI
	ACVoice                            // AC_VO
)

// AccessCategories lists every category in ascending priority order.
var AccessCategories = []AccessCategory{ACBackground, ACBestEffort, ACVideo, ACVoice}

// String returns the usual AC_* notation.
func (ac AccessCategory) String() string {
	switch ac {
	case ACBackground:
		return "AC_BK"
	case ACBestEffort:
		return "AC_BE"
	case ACVideo:
		return "AC_VI"
	case ACVoice:
		return "AC_VO"
	default:
		return "AC_?"
	}
}

// Frame is one MAC-level frame as it sits in a transmit queue or crosses
// the simulated medium.
type Frame struct {
	Src        MacAddr
	Dst        MacAddr
	AC         AccessCategory
	Payload    []byte
	Management bool // true for action frames, false for data
}

// BlockAckAgreement is the per-peer reassembly/acknowledgment agreement a
// queue may hold for one traffic class. Agreements are copied (not moved)
// during a band switch so the old side can still flush in-flight acks.
type BlockAckAgreement struct {
	Peer       MacAddr
	TID        uint8
	BufferSize uint16
	StartSeq   uint16
	Immediate  bool
}

// Copy returns an independent copy of the agreement.
func (a BlockAckAgreement) Copy() BlockAckAgreement {
	return a
}
