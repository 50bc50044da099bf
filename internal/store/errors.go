package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrUsernameConflict is returned when a username already exists
	ErrUsernameConflict = errors.New("username already exists")

	// ErrEmailConflict is returned when an email already exists
	ErrEmailConflict = errors.New("email already exists")

	// ErrDuplicateCode is returned when inserting an authorization code
	// whose hash is already present.
	ErrDuplicateCode = errors.New("authorization code already exists")

	// ErrCodeNotFound is returned when an authorization code is absent or
	// expired. Expired codes are indistinguishable from unknown ones.
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrCodeAlreadyConsumed is returned by ConsumeAuthorizationCode when
	// the code was already consumed by a concurrent request (0 rows updated).
	ErrCodeAlreadyConsumed = errors.New("authorization code already consumed")
)
