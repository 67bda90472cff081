package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrMalformedRecord = errors.New("malformed stored record")
	ErrInvalidArgument = errors.New("invalid store argument")
	ErrConflict        = errors.New("concurrent update conflict")
)
