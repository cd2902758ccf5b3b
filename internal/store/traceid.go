package store

import "github.com/google/uuid"

// NewTraceID generates a unique span identifier for producers that do not
// supply their own.
func NewTraceID() string {
	return uuid.NewString()
}
