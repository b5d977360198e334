package uuidx

import "github.com/google/uuid"

// New generates a v7 UUID. Run and turn identifiers are v7 so they sort by
// creation time, which keeps session logs naturally ordered.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a v7 UUID and returns its string form.
func NewString() string {
	return New().String()
}
