package pipeline

import "github.com/google/uuid"

// NewJobID returns a random job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// newChunkID returns a time-ordered identifier for a stored chunk node, so
// a prefix scan lists chunks roughly in write order.
func newChunkID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
