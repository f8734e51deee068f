package codec

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
)

// Element tags used by FST signaling.
const (
	TagMultiBand         = 158
	TagSessionTransition = 164
)

// Session types carried in the Session Transition control byte.
const (
	SessionTypeInfrastructureBSS = 0
	SessionTypeIBSS              = 1
	SessionTypeDLS               = 2
	SessionTypeTDLS              = 3
	SessionTypePBSS              = 4
)

// SessionControl packs the session type and the switch-intent flag into
// the control byte (type in bits 0-2, intent in bit 3).
func SessionControl(sessionType uint8, switchIntent bool) uint8 {
	ctrl := sessionType & 0x07
	if switchIntent {
		ctrl |= 0x08
	}
	return ctrl
}

// Band is one band descriptor inside a Session Transition element.
type Band struct {
	ID        domain.BandID
	Setup     uint8
	Operation uint8
}

// SessionTransition is the Session Transition element: the session id plus
// the old/new band descriptors and the BSS-type control byte.
type SessionTransition struct {
	FstsID  uint32
	Control uint8 // session type + switch-intent flag
	NewBand Band
	OldBand Band
}

const sessionTransitionLen = 11 // fsts id (4) + control (1) + 2 band fields (3 each)

// MultiBand describes the sender's capabilities in another band. Optional
// in a Setup Request.
type MultiBand struct {
	BandID         domain.BandID
	OperatingClass uint8
	Channel        uint8
	BSSID          domain.MacAddr
	SessionTimeout uint8
}

const multiBandLen = 10 // band id + class + channel + bssid (6) + timeout

func appendElement(dst []byte, tag uint8, body []byte) []byte {
	dst = append(dst, tag, uint8(len(body)))
	return append(dst, body...)
}

func (st SessionTransition) appendTo(dst []byte) []byte {
	body := make([]byte, 0, sessionTransitionLen)
	body = binary.LittleEndian.AppendUint32(body, st.FstsID)
	body = append(body, st.Control)
	body = append(body, uint8(st.NewBand.ID), st.NewBand.Setup, st.NewBand.Operation)
	body = append(body, uint8(st.OldBand.ID), st.OldBand.Setup, st.OldBand.Operation)
	return appendElement(dst, TagSessionTransition, body)
}

func parseSessionTransition(body []byte) (SessionTransition, error) {
	var st SessionTransition
	if len(body) < sessionTransitionLen {
		return st, fmt.Errorf("%w: session transition element too short (%d)", domain.ErrMalformedFrame, len(body))
	}
	st.FstsID = binary.LittleEndian.Uint32(body[0:4])
	st.Control = body[4]
	st.NewBand = Band{ID: domain.BandID(body[5]), Setup: body[6], Operation: body[7]}
	st.OldBand = Band{ID: domain.BandID(body[8]), Setup: body[9], Operation: body[10]}
	return st, nil
}

func (mb MultiBand) appendTo(dst []byte) ([]byte, error) {
	hw, err := net.ParseMAC(string(mb.BSSID))
	if err != nil {
		return nil, fmt.Errorf("multi-band element: bad bssid %q: %w", mb.BSSID, err)
	}
	body := make([]byte, 0, multiBandLen)
	body = append(body, uint8(mb.BandID), mb.OperatingClass, mb.Channel)
	body = append(body, hw...)
	body = append(body, mb.SessionTimeout)
	return appendElement(dst, TagMultiBand, body), nil
}

func parseMultiBand(body []byte) (MultiBand, error) {
	var mb MultiBand
	if len(body) < multiBandLen {
		return mb, fmt.Errorf("%w: multi-band element too short (%d)", domain.ErrMalformedFrame, len(body))
	}
	mb.BandID = domain.BandID(body[0])
	mb.OperatingClass = body[1]
	mb.Channel = body[2]
	mb.BSSID = domain.MacAddr(net.HardwareAddr(body[3:9]).String())
	mb.SessionTimeout = body[9]
	return mb, nil
}

// iterateElements walks the TLV elements in data, invoking cb for each one.
// It stops at the first element whose declared length exceeds the remaining
// bytes.
func iterateElements(data []byte, cb func(tag uint8, body []byte)) {
	offset := 0
	for offset+2 <= len(data) {
		tag := data[offset]
		length := int(data[offset+1])
		offset += 2
		if offset+length > len(data) {
			break
		}
		cb(tag, data[offset:offset+length])
		offset += length
	}
}
