package identity

import (
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with an explicit cost. Construct one at
// startup and pass it by reference; there is no package-level instance.
type PasswordHasher struct {
	cost int
}

var _ PasswordAuthenticator = (*PasswordHasher)(nil)

// NewPasswordHasher creates a hasher with the given bcrypt cost. Costs
// outside the bcrypt range fall back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash will generate a password hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	return string(b), nil
}

// Compare will validate the given cleartext password matches the hashed
// password. Comparison is constant-time inside bcrypt.
func (h *PasswordHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password and hash")
	}
	return nil
}

// RandomPasswordHash is a temporary password
func (h *PasswordHasher) RandomPasswordHash() string {
	pwd := uuid.New()

	out, err := h.Hash(pwd.String())
	if err != nil {
		return h.RandomPasswordHash()
	}

	return out
}
