package session

import "errors"

var (
	// ErrExhausted is returned when the iteration budget has been used up
	ErrExhausted = errors.New("no clustering iterations left")

	// ErrAnimating is returned when a step is triggered while centroids are still moving
	ErrAnimating = errors.New("centroids are still moving")

	// ErrInvalidOptions is returned when session options cannot produce a scene
	ErrInvalidOptions = errors.New("invalid session options")
)
