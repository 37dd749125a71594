package uid

import "github.com/google/uuid"

// UUID generates RFC 4122 UUID strings, preferring the time-ordered v7
// layout.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the random source does; v4 shares the
		// source but a second draw may still succeed.
		return uuid.NewString()
	}
	return id.String()
}
