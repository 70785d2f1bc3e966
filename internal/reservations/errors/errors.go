package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrStaleToken = errors.New("reservation was modified by someone else")

	ErrInvalidDateRange = errors.New("checkout date must not precede checkin date")

	ErrRoomNotFound = errors.New("room not found")
)
