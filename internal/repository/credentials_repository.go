package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// CredentialsRepo stores sealed BackMarket key pairs.  It never sees
// plaintext.
type CredentialsRepo struct{ db *sqlx.DB }

func NewCredentialsRepo(db *sqlx.DB) *CredentialsRepo { return &CredentialsRepo{db: db} }

func (r *CredentialsRepo) Get(ctx context.Context, businessID uint64) (*model.BackMarketCredentials, error) {
	var c model.BackMarketCredentials
	err := r.db.GetContext(ctx, &c,
		"SELECT id, business_id, api_key, api_secret, updated_by, updated_at FROM backmarket_credentials WHERE business_id = ?",
		businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Upsert replaces the business's pair.
func (r *CredentialsRepo) Upsert(ctx context.Context, c *model.BackMarketCredentials) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO backmarket_credentials (business_id, api_key, api_secret, updated_by)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE api_key = VALUES(api_key), api_secret = VALUES(api_secret),
			updated_by = VALUES(updated_by), updated_at = CURRENT_TIMESTAMP`,
		c.BusinessID, c.APIKey, c.APISecret, c.UpdatedBy)
	if err != nil {
		return err
	}
	saved, err := r.Get(ctx, c.BusinessID)
	if err != nil {
		return err
	}
	*c = *saved
	return nil
}

// Delete removes the pair; ErrNotFound when none was stored.
func (r *CredentialsRepo) Delete(ctx context.Context, businessID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM backmarket_credentials WHERE business_id = ?", businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
