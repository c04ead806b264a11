package recurrence

import (
	"fmt"

	"github.com/google/uuid"
)

// NewGroupID returns a fresh random (version 4) identifier for a recurrence
// group. It is generated once per series and never reused.
func NewGroupID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate recurrence group id: %w", err)
	}
	return id.String(), nil
}

// ValidGroupID reports whether s is a canonical UUID string.
func ValidGroupID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.String() == s
}
