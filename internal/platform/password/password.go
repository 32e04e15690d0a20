package password

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const MinLength = 6

var ErrTooShort = fmt.Errorf("password must be at least %d characters", MinLength)

// Hasher envuelve bcrypt. El hash nunca sale de la capa de usuarios.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher acepta cost 0 (usa bcrypt.DefaultCost).
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

func Validate(plain string) error {
	if len(plain) < MinLength {
		return ErrTooShort
	}
	return nil
}

func (h *Hasher) Hash(plain string) (string, error) {
	if err := Validate(plain); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify devuelve false ante cualquier error (hash corrupto incluido).
func (h *Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyMissing compara plain contra un hash fijo del mismo cost y devuelve
// siempre false. Se usa cuando el usuario no existe.
func (h *Hasher) VerifyMissing(plain string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("missing-user-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	return false
}
