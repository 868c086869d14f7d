package id

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a random 32-character hex capture ID.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "capture-fallback-id"
	}
	return hex.EncodeToString(b[:])
}
