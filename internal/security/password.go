package security

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the one-way transform used for stored passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher salts every call, so equal inputs give different hashes.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost for out of range costs.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify compares in constant time; a malformed hash is a mismatch.
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return CheckPassword(hash, plain) == nil
}

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	return NewBcryptHasher(bcrypt.DefaultCost).Hash(plain)
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
