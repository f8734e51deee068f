// Package codec encodes and decodes the five FST management action frames.
// It is pure and stateless: decoding never mutates session state, and
// encoding cannot fail for well-formed in-memory values.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
)

// CategoryFST is the action-frame category byte for Fast Session Transfer.
const CategoryFST = 18

// FST action field values.
const (
	ActionSetupRequest  = 0
	ActionSetupResponse = 1
	ActionTearDown      = 2
	ActionAckRequest    = 3
	ActionAckResponse   = 4
)

// Action is one decoded FST action frame body.
type Action interface {
	// Subtype returns the FST action field value of the frame.
	Subtype() uint8
}

// SetupRequest starts an FST handshake towards a peer.
type SetupRequest struct {
	DialogToken uint8
	LLT         uint32 // link loss timeout in 32µs blocks
	Transition  SessionTransition
	MultiBand   *MultiBand // optional other-band capability descriptor
}

// SetupResponse accepts (status 0) or rejects the proposed transfer.
type SetupResponse struct {
	DialogToken uint8
	Status      uint16
	Transition  SessionTransition
}

// AckRequest validates reachability on the new band after the switch.
type AckRequest struct {
	DialogToken uint8
	FstsID      uint32
}

// AckResponse confirms the new band is usable.
type AckResponse struct {
	DialogToken uint8
	FstsID      uint32
}

// TearDown terminates an FST session.
type TearDown struct {
	FstsID uint32
}

// Subtype implements Action.
func (SetupRequest) Subtype() uint8 { return ActionSetupRequest }

// Subtype implements Action.
func (SetupResponse) Subtype() uint8 { return ActionSetupResponse }

// Subtype implements Action.
func (AckRequest) Subtype() uint8 { return ActionAckRequest }

// Subtype implements Action.
func (AckResponse) Subtype() uint8 { return ActionAckResponse }

// Subtype implements Action.
func (TearDown) Subtype() uint8 { return ActionTearDown }

// SubtypeName returns a short label for an FST action value, for logs and
// metrics.
func SubtypeName(sub uint8) string {
	switch sub {
	case ActionSetupRequest:
		return "setup_request"
	case ActionSetupResponse:
		return "setup_response"
	case ActionTearDown:
		return "teardown"
	case ActionAckRequest:
		return "ack_request"
	case ActionAckResponse:
		return "ack_response"
	default:
		return "unknown"
	}
}

// Encode serializes an action frame body, prefixed with the category and
// action bytes.
func Encode(a Action) ([]byte, error) {
	buf := []byte{CategoryFST, a.Subtype()}
	switch v := a.(type) {
	case SetupRequest:
		buf = append(buf, v.DialogToken)
		buf = binary.LittleEndian.AppendUint32(buf, v.LLT)
		buf = v.Transition.appendTo(buf)
		if v.MultiBand != nil {
			var err error
			if buf, err = v.MultiBand.appendTo(buf); err != nil {
				return nil, err
			}
		}
	case SetupResponse:
		buf = append(buf, v.DialogToken)
		buf = binary.LittleEndian.AppendUint16(buf, v.Status)
		buf = v.Transition.appendTo(buf)
	case AckRequest:
		buf = append(buf, v.DialogToken)
		buf = binary.LittleEndian.AppendUint32(buf, v.FstsID)
	case AckResponse:
		buf = append(buf, v.DialogToken)
		buf = binary.LittleEndian.AppendUint32(buf, v.FstsID)
	case TearDown:
		buf = binary.LittleEndian.AppendUint32(buf, v.FstsID)
	default:
		return nil, fmt.Errorf("codec: unsupported action type %T", a)
	}
	return buf, nil
}

// Decode parses an FST action frame. It fails with ErrMalformedFrame when
// the category is wrong, the body is truncated or a required element is
// missing.
func Decode(payload []byte) (Action, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: frame too short (%d bytes)", domain.ErrMalformedFrame, len(payload))
	}
	if payload[0] != CategoryFST {
		return nil, fmt.Errorf("%w: category %d is not FST", domain.ErrMalformedFrame, payload[0])
	}
	sub, body := payload[1], payload[2:]

	switch sub {
	case ActionSetupRequest:
		return decodeSetupRequest(body)
	case ActionSetupResponse:
		return decodeSetupResponse(body)
	case ActionAckRequest:
		token, id, err := decodeTokenAndID(body)
		if err != nil {
			return nil, err
		}
		return AckRequest{DialogToken: token, FstsID: id}, nil
	case ActionAckResponse:
		token, id, err := decodeTokenAndID(body)
		if err != nil {
			return nil, err
		}
		return AckResponse{DialogToken: token, FstsID: id}, nil
	case ActionTearDown:
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: teardown body too short", domain.ErrMalformedFrame)
		}
		return TearDown{FstsID: binary.LittleEndian.Uint32(body)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown FST action %d", domain.ErrMalformedFrame, sub)
	}
}

func decodeSetupRequest(body []byte) (Action, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("%w: setup request body too short", domain.ErrMalformedFrame)
	}
	req := SetupRequest{
		DialogToken: body[0],
		LLT:         binary.LittleEndian.Uint32(body[1:5]),
	}
	transition, multiBand, err := parseElements(body[5:])
	if err != nil {
		return nil, err
	}
	if transition == nil {
		return nil, fmt.Errorf("%w: setup request lacks session transition element", domain.ErrMalformedFrame)
	}
	req.Transition = *transition
	req.MultiBand = multiBand
	return req, nil
}

func decodeSetupResponse(body []byte) (Action, error) {
	if len(body) < 3 {
		return nil, fmt.Errorf("%w: setup response body too short", domain.ErrMalformedFrame)
	}
	resp := SetupResponse{
		DialogToken: body[0],
		Status:      binary.LittleEndian.Uint16(body[1:3]),
	}
	transition, _, err := parseElements(body[3:])
	if err != nil {
		return nil, err
	}
	if transition == nil {
		return nil, fmt.Errorf("%w: setup response lacks session transition element", domain.ErrMalformedFrame)
	}
	resp.Transition = *transition
	return resp, nil
}

func decodeTokenAndID(body []byte) (uint8, uint32, error) {
	if len(body) < 5 {
		return 0, 0, fmt.Errorf("%w: ack body too short", domain.ErrMalformedFrame)
	}
	return body[0], binary.LittleEndian.Uint32(body[1:5]), nil
}

func parseElements(data []byte) (*SessionTransition, *MultiBand, error) {
	var (
		transition *SessionTransition
		multiBand  *MultiBand
		parseErr   error
	)
	iterateElements(data, func(tag uint8, body []byte) {
		if parseErr != nil {
			return
		}
		switch tag {
		case TagSessionTransition:
			st, err := parseSessionTransition(body)
			if err != nil {
				parseErr = err
				return
			}
			transition = &st
		case TagMultiBand:
			mb, err := parseMultiBand(body)
			if err != nil {
				parseErr = err
				return
			}
			multiBand = &mb
		}
	})
	if parseErr != nil {
		return nil, nil, parseErr
	}
	return transition, multiBand, nil
}
