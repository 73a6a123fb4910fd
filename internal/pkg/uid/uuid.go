package uid

import "github.com/google/uuid"

// UUID generates time-ordered v7 UUIDs for correlation and JWT ids.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	return uuid.NewString()
}
