package game

import "errors"

// Typed failures surfaced to the presentation layer. Callers match with
// errors.Is.
var (
	// ErrCharacterNotFound means the requested character ID is not loaded.
	ErrCharacterNotFound = errors.New("character not found")

	// ErrSessionNotFound means the session ID (or user) has no live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrValidation means the caller supplied input the engine refuses to
	// persist, e.g. an out-of-range feedback rating or an advance on a
	// finished playthrough.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable means the durable store rejected an operation the
	// engine cannot proceed without.
	ErrStoreUnavailable = errors.New("store unavailable")
)
