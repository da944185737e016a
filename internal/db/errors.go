package db

import (
	"errors"
	"fmt"
)

var (
	// ErrMissing is returned when a requested record does not exist.
	ErrMissing = errors.New("missing")

	// ErrConflict is returned when a write collides with existing records,
	// like a duplicated name or a record still referenced by others.
	ErrConflict = errors.New("conflict")
)

// Missing tells which record was not found. It unwraps to ErrMissing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return ErrMissing
}

// Conflict tells which record a write collided with. It unwraps to ErrConflict.
type Conflict struct {
	Table  string
	Reason string
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	return fmt.Sprintf("conflict in %s: %s", c.Table, c.Reason)
}

func (c Conflict) Unwrap() error {
	return ErrConflict
}
