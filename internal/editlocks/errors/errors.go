package errors

import "errors"

var (
	ErrLockNotFound = errors.New("edit lock not found")

	ErrAlreadyLocked = errors.New("reservation is already locked")

	ErrNotHolder = errors.New("lock is held by someone else")
)
