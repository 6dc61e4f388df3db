package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), normalizeCost(cost))
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// Hasher is the password hasher used by login and account creation.
type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. Costs below bcrypt.DefaultCost are raised
// to it; costs above bcrypt.MaxCost are capped.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: normalizeCost(cost)}
}

// Hash returns a salted digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	return HashPassword(plain, h.cost)
}

// Verify reports whether plain matches digest.
func (h *Hasher) Verify(plain, digest string) bool {
	return ComparePassword(digest, plain) == nil
}

// Cost returns the effective bcrypt cost.
func (h *Hasher) Cost() int {
	return h.cost
}

func normalizeCost(cost int) int {
	if cost < bcrypt.DefaultCost {
		return bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}
