package training

import "errors"

// Sentinel errors for the training package. Check with errors.Is.
var (
	ErrSessionNotFound  = errors.New("training: session not found")
	ErrCardNotFound     = errors.New("training: card has no memory state")
	ErrCardNotInSession = errors.New("training: card not part of session")
	ErrDuplicateAnswer  = errors.New("training: card already answered in session")
)
