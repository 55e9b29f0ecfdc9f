package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/domain"
)

// bcrypt only reads the first 72 bytes of its input and rejects anything longer.
const maxPasswordBytes = 72

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword(passwordBytes(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), passwordBytes(plain))
}

// RandomKey returns a 20 character key used for activation and password reset.
func RandomKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:domain.KeyLength]
}

// RandomPassword returns a throwaway password for admin-created accounts.
func RandomPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
