package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrSlotLocked = errors.New("slot is locked by another booking in progress")
)
