package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/domain/users"
)

const userColumns = `id, username, email, password_hash, role, active, capabilities, created_at, last_login`

type UsersRepo struct {
	db DB
}

func NewUsersRepo(db DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.Active,
		u.Capabilities.Strings(),
		u.CreatedAt,
		u.LastLogin,
	)
	return mapUserErr(err)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	if !validID(id) {
		return users.User{}, users.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, notFoundOr(err, users.ErrNotFound)
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, notFoundOr(err, users.ErrNotFound)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, fn func(u *users.User) error) (users.User, error) {
	if !validID(id) {
		return users.User{}, users.ErrNotFound
	}
	var out users.User
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanUser(row)
		if err != nil {
			return notFoundOr(err, users.ErrNotFound)
		}

		next := cur
		if err := fn(&next); err != nil {
			return err
		}
		next.ID = cur.ID

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET
				username = $2,
				email = $3,
				password_hash = $4,
				role = $5,
				active = $6,
				capabilities = $7,
				last_login = $8
			WHERE id = $1
		`,
			next.ID,
			next.Username,
			next.Email,
			next.PasswordHash,
			string(next.Role),
			next.Active,
			next.Capabilities.Strings(),
			next.LastLogin,
		)
		if err != nil {
			return mapUserErr(err)
		}
		out = next
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	return out, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return users.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func scanUser(s scanner) (users.User, error) {
	var (
		u         users.User
		role      string
		caps      []string
		lastLogin *time.Time
	)
	if err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Active,
		&caps,
		&u.CreatedAt,
		&lastLogin,
	); err != nil {
		return users.User{}, err
	}

	var err error
	if u.Role, err = permissions.ParseRole(role); err != nil {
		return users.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	if u.Capabilities, err = permissions.FromStrings(caps); err != nil {
		return users.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.LastLogin = lastLogin
	return u, nil
}

func mapUserErr(err error) error {
	switch uniqueConstraint(err) {
	case "":
		return err
	case "users_email_key":
		return users.ErrEmailTaken
	default:
		return users.ErrUsernameTaken
	}
}
