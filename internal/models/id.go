package models

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 24-character lowercase hex identifier. All primary
// entities (users, projects, bugs) use this format so route parameters can be
// classified by shape alone.
func NewID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
