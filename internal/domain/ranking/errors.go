package ranking

import (
	"errors"
	"fmt"
)

// Sentinel kinds for snapshot validation. Every ValidationError also
// matches ErrInvalidSnapshot.
var (
	ErrInvalidSnapshot   = errors.New("invalid player snapshot")
	ErrEmptyUsername     = errors.New("empty username")
	ErrNegativeGames     = errors.New("negative games played")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// ValidationError identifies the record that made a snapshot unrankable.
type ValidationError struct {
	Index    int
	Username string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("player record %d (%q): %v", e.Index, e.Username, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidSnapshot) hold for any validation failure.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidSnapshot }
