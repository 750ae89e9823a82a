package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a play session is unknown or already finished.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionsNotFound indicates no questions exist for the requested level.
	ErrQuestionsNotFound = errors.New("no questions for this level")
	// ErrLevelLocked is returned when a learner tries a level they have not unlocked.
	ErrLevelLocked = errors.New("level is locked")
	// ErrLearnerNotFound indicates no progress is stored for a learner.
	ErrLearnerNotFound = errors.New("learner not found")
	// ErrInvalidRequest wraps malformed client input.
	ErrInvalidRequest = errors.New("invalid request")
)
