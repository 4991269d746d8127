package users

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashing parameters.
const (
	DefaultIterations = 100000
	SaltSize          = 16
	KeySize           = 32
)

// PasswordData is the persisted form of a credential: hex salt and hex
// PBKDF2-SHA256 digest.
type PasswordData struct {
	Salt string `json:"salt"`
	Hash string `json:"hash"`
}

// Hasher derives and verifies salted password hashes.
type Hasher struct {
	iterations int
}

// NewHasher creates a hasher. Non-positive iteration counts fall back to
// DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives a new credential for password with a fresh random salt.
func (h *Hasher) Hash(password string) (*PasswordData, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.iterations, KeySize, sha256.New)
	return &PasswordData{
		Salt: hex.EncodeToString(salt),
		Hash: hex.EncodeToString(key),
	}, nil
}

// Verify reports whether attempt matches the stored credential.
func (h *Hasher) Verify(data *PasswordData, attempt string) bool {
	salt, err := hex.DecodeString(data.Salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(data.Hash)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(attempt), salt, h.iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
