package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// NewDeviceID generates a fresh device identifier: a cryptographically
// random UUID v4, uppercased the way the platform displays device ids.
func NewDeviceID() string {
	return strings.ToUpper(uuid.NewString())
}

// NewPIN generates a uniformly random 4-digit PIN, zero-padded.
func NewPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
