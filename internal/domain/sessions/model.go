// Package sessions emite y resuelve sesiones del lado servidor.
// El cliente solo conoce un token opaco; el store guarda su hash.
package sessions

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrExpired lo devuelve Store.Save si la sesión ya venció según el reloj del store.
	ErrExpired = errors.New("session already expired")
)

type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store mapea hash de token -> sesión. Save devuelve ErrExpired si la sesión ya
// venció. Get devuelve ErrNotFound si no existe o ya expiró. Delete es idempotente.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, tokenHash string) (Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

const tokenBytes = 32

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken es lo único que se persiste.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
