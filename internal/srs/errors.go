package srs

import "errors"

// Sentinel errors for the srs package. Check with errors.Is.
var (
	ErrInvalidQuality = errors.New("srs: answer quality outside 0-3")
	ErrInvalidState   = errors.New("srs: unknown card state")
)
