package uid

import "github.com/google/uuid"

// UUID generates RFC 9562 UUID strings, preferring time-ordered v7 values so
// correlation ids sort by arrival in log storage.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
