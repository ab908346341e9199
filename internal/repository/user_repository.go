package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, password_hash, role_id, business_id, created_at, updated_at"

// GetByUsername looks a user up case-sensitively.  The column collation is
// case-insensitive, so the match is confirmed in Go.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.Username != username {
		return nil, ErrNotFound
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts u and fills in its id.  A taken username is ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role_id, business_id) VALUES (?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.RoleID, u.BusinessID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// ListByBusiness returns a business's users ordered by username.  A nil
// business lists every user.
func (r *UserRepo) ListByBusiness(ctx context.Context, businessID *uint64) ([]model.User, error) {
	out := []model.User{}
	var err error
	if businessID == nil {
		err = r.db.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users ORDER BY username")
	} else {
		err = r.db.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users WHERE business_id = ? ORDER BY username", *businessID)
	}
	return out, err
}
