package accounts

import (
	"fmt"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

// Hasher derives and verifies credential hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// LegacyHasher is the platform's original 32-bit mixing function. It is NOT
// a cryptographic hash and provides no real protection: it exists so demo
// deployments keep producing the hashes the original platform stored.
// Anything beyond a demo should use BcryptHasher.
type LegacyHasher struct{}

func (LegacyHasher) Hash(password string) (string, error) {
	var hash int32
	for _, unit := range utf16.Encode([]rune(password)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	return strconv.FormatInt(int64(hash), 10), nil
}

func (h LegacyHasher) Verify(hash, password string) bool {
	derived, _ := h.Hash(password)
	return derived == hash
}

// BcryptHasher derives real credential hashes.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HasherForScheme maps a config value to a hasher; unknown schemes fall
// back to the legacy one.
func HasherForScheme(scheme string) Hasher {
	if scheme == "bcrypt" {
		return BcryptHasher{}
	}
	return LegacyHasher{}
}
