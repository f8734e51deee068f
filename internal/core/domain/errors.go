package domain

import "errors"

// Error taxonomy for the FST core.
var (
	// ErrMalformedFrame is returned by the codec when a received action
	// frame lacks a required field or element. The frame is dropped and
	// session state is left untouched.
	ErrMalformedFrame = errors.New("malformed action frame")

	// ErrProtocolViolation indicates an action sub-type that is not valid
	// for the current session state (or no session at all). It is fatal to
	// the operation and must never be swallowed.
	ErrProtocolViolation = errors.New("fst protocol violation")

	// ErrUnknownStandard indicates a band switch targeting a technology
	// that was never registered on the device.
	ErrUnknownStandard = errors.New("unknown technology standard")

	// ErrStackUnavailable indicates the target technology is registered
	// but not operational right now.
	ErrStackUnavailable = errors.New("technology stack not operational")

	// ErrSetupRejected is returned when a Setup Response carries a nonzero
	// status code. Recoverable: the session returns to the initial state
	// and the caller may retry with a fresh Setup Request.
	ErrSetupRejected = errors.New("fst setup rejected by peer")

	// ErrDuplicateRegistration indicates a re-registration that would
	// leave the device without a valid active stack.
	ErrDuplicateRegistration = errors.New("duplicate technology registration")
)
