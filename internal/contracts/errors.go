package contracts

import "errors"

// Error taxonomy shared by every layer; wrap with %w and test with errors.Is
var (
	// ErrInvalidArgument rejects malformed input before any computation starts
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a missing security or exchange
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a uniqueness violation outside the upsert path
	ErrConflict = errors.New("conflict")
)
