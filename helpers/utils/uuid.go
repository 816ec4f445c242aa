package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random UUID v4.
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateShortID returns the first 8 hex characters of a random UUID.
func GenerateShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// RequestID returns incoming when it is a valid UUID, otherwise a fresh one.
func RequestID(incoming string) string {
	if id, err := uuid.Parse(strings.TrimSpace(incoming)); err == nil {
		return id.String()
	}
	return GenerateUUID()
}
