package utils

import (
	"crypto/rand"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// GenerateID generates a new UUID v4 string for metadata rows
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

// GenerateRecordID generates a lexicographically sortable ULID for record instances
func GenerateRecordID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
