package model

import "errors"

var (
	// ErrInvalidLink covers unknown, expired and already consumed tokens alike.
	ErrInvalidLink = errors.New("magic link is invalid or expired")
	// ErrInvalidType indicates an unknown link type.
	ErrInvalidType = errors.New("invalid magic link type")
)
