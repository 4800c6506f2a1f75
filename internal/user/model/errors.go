package model

import "errors"

var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates that another account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a wrong email/password pair or an inactive account.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidInput indicates missing or malformed member fields.
	ErrInvalidInput = errors.New("invalid member input")
	// ErrPasswordTooShort indicates a password below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrSelfModification indicates an admin tried to toggle, demote or delete their own account.
	ErrSelfModification = errors.New("cannot modify own account")
	// ErrMemberInUse indicates the member is referenced by review history and can only be deactivated.
	ErrMemberInUse = errors.New("member has review history, deactivate instead")
	// ErrSetupCompleted indicates first-run setup was attempted after users exist.
	ErrSetupCompleted = errors.New("setup already completed")
)
