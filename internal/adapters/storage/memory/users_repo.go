package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-clinic-records/internal/domain/users"
)

type UserRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID: make(map[string]users.User),
	}
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	if err := r.checkUniqueLocked(u); err != nil {
		return err
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *UserRepo) Update(ctx context.Context, id string, fn func(u *users.User) error) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	next := cloneUser(cur)
	if err := fn(&next); err != nil {
		return users.User{}, err
	}
	next.ID = cur.ID
	if err := r.checkUniqueLocked(next); err != nil {
		return users.User{}, err
	}
	r.byID[id] = cloneUser(next)
	return next, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Unicidad global: incluye usuarios inactivos.
func (r *UserRepo) checkUniqueLocked(u users.User) error {
	for _, other := range r.byID {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return users.ErrUsernameTaken
		}
		if other.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	return nil
}

func cloneUser(u users.User) users.User {
	u.Capabilities = u.Capabilities.Clone()
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
