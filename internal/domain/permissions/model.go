// Package permissions es el guardián de capacidades: decide si un usuario
// autenticado puede ejecutar una categoría de acción.
package permissions

import (
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("role must be admin or user")
	}
}

type Capability string

const (
	CapManagePets        Capability = "manage_pets"
	CapAccessVaccination Capability = "access_vaccination"
	CapAccessReports     Capability = "access_reports"
)

var all = []Capability{CapManagePets, CapAccessVaccination, CapAccessReports}

// All devuelve las capacidades conocidas en orden estable.
func All() []Capability {
	out := make([]Capability, len(all))
	copy(out, all)
	return out
}

func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range all {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// Set es el conjunto de capacidades de un usuario con rol user.
// Agregar una capacidad nueva es agregar una constante, no un campo.
type Set map[Capability]struct{}

func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// DefaultSet son las capacidades de un usuario nuevo si no se indican otras.
func DefaultSet() Set {
	return NewSet(CapManagePets, CapAccessVaccination)
}

func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s Set) With(c Capability, on bool) Set {
	out := s.Clone()
	if on {
		out[c] = struct{}{}
	} else {
		delete(out, c)
	}
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Slice en orden alfabético (persistencia y comparaciones en tests).
func (s Set) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) Strings() []string {
	caps := s.Slice()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// FromStrings ignora vacíos y falla con valores desconocidos.
func FromStrings(values []string) (Set, error) {
	s := make(Set, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		c, err := ParseCapability(v)
		if err != nil {
			return nil, err
		}
		s[c] = struct{}{}
	}
	return s, nil
}

// Principal es el usuario resuelto a partir de la sesión.
type Principal struct {
	UserID       string
	Username     string
	Role         Role
	Capabilities Set
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Allow: admin siempre; user solo si tiene la capacidad.
func Allow(p Principal, c Capability) bool {
	if p.Role == RoleAdmin {
		return true
	}
	if p.Role != RoleUser {
		return false
	}
	return p.Capabilities.Has(c)
}

// Effective son las capacidades que efectivamente aplica Allow.
func Effective(role Role, caps Set) Set {
	if role == RoleAdmin {
		return NewSet(all...)
	}
	return caps.Clone()
}
