package model

import "errors"

var (
	// ErrUnauthenticated indicates a missing, expired or unknown session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the principal may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)
