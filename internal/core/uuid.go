package core

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID for timer ids. Falls back to a
// random v4 if v7 generation fails (entropy exhaustion).
func NewUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValidUUID reports whether s parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
