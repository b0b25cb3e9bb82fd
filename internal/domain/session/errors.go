package session

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotParticipant    = errors.New("user is not a participant of this session")
	ErrJoinWindowClosed  = errors.New("session cannot be joined at this time")
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrVersionConflict   = errors.New("session was modified concurrently")

	// Signaling errors, returned to the offending caller only.
	ErrDuplicateOffer = errors.New("an unconsumed offer already exists")
	ErrNoPendingOffer = errors.New("no pending offer for this session")

	// ErrTransportFailure is terminal platform/signaling failure after the
	// fallback budget is spent.
	ErrTransportFailure = errors.New("call could not be established")
)
