package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	dom "example.com/storefront/app/internal/domain/user"
)

const userColumns = `id, first_name, last_name, email, phone, address, password_hash, role, created_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *dom.User) (*dom.User, error) {
	id, err := r.db.conn().insert(ctx, `
        INSERT INTO users (first_name, last_name, email, phone, address, password_hash, role)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.Address, u.PasswordHash, string(u.RoleCode),
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, dom.ErrEmailAlreadyUsed
		}
		return nil, errors.Wrap(err, "insert user")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*dom.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*dom.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) List(ctx context.Context, filter dom.ListUsersFilter) ([]*dom.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.RoleCode != nil {
		query += ` WHERE role = ?`
		args = append(args, string(*filter.RoleCode))
	}
	query += ` ORDER BY id`

	rows, err := r.db.conn().query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var users []*dom.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role dom.RoleCode) (*dom.User, error) {
	if _, err := r.db.conn().exec(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id); err != nil {
		return nil, errors.Wrap(err, "update user role")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*dom.User, error) {
	u, err := scanUser(r.db.conn().queryRow(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dom.ErrUserNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*dom.User, error) {
	var (
		u    dom.User
		role string
	)
	if err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Address,
		&u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan user")
	}
	u.RoleCode = dom.RoleCode(role)
	return &u, nil
}
