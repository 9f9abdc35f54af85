package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/password"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	ErrMismatch      = errors.New("password does not match")
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

// Evaluator is satisfied by *password.Policy.
type Evaluator interface {
	Evaluate(pw string) password.ValidationResult
}

type bcryptHasher struct {
	cost   int
	policy Evaluator
}

// NewBcryptHasher creates a bcrypt hasher that refuses passwords policy
// rejects. A nil policy uses password.Default().
func NewBcryptHasher(cost int, policy Evaluator) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if policy == nil {
		policy = password.Default()
	}
	return &bcryptHasher{cost: cost, policy: policy}
}

func (b *bcryptHasher) Hash(pw string) (string, error) {
	if res := b.policy.Evaluate(pw); !res.IsValid {
		return "", apperrors.WeakPassword(res.Errors)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost)
	if err != nil {
		return "", apperrors.Internal(errors.Join(ErrHashingFailed, err))
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, pw string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(pw))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// Cost reports the bcrypt cost a hash was created with.
func Cost(hashedPassword string) (int, error) {
	return bcrypt.Cost([]byte(hashedPassword))
}
