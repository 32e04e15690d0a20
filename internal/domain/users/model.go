package users

import (
	"time"

	"vet-clinic-records/internal/domain/permissions"
)

// User es una cuenta del personal de la clínica.
// PasswordHash nunca se serializa: las respuestas usan Response.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	Role         permissions.Role
	Active       bool
	Capabilities permissions.Set // solo tiene efecto con RoleUser

	CreatedAt time.Time
	LastLogin *time.Time
}

func (u User) Principal() permissions.Principal {
	return permissions.Principal{
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		Capabilities: u.Capabilities.Clone(),
	}
}
