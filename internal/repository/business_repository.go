package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/returns-desk/internal/model"
)

// BusinessRepo encapsulates queries on the tenants table.
type BusinessRepo struct{ db *sqlx.DB }

func NewBusinessRepo(db *sqlx.DB) *BusinessRepo { return &BusinessRepo{db: db} }

const businessColumns = `id, name, currency_code, currency_symbol, address_line1, address_line2,
	city, postcode, country, phone, owner_id, created_at, updated_at`

func (r *BusinessRepo) GetByID(ctx context.Context, id uint64) (*model.Business, error) {
	var b model.Business
	if err := r.db.GetContext(ctx, &b, "SELECT "+businessColumns+" FROM businesses WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns one business when id is set, every business otherwise.
func (r *BusinessRepo) List(ctx context.Context, id *uint64) ([]model.Business, error) {
	out := []model.Business{}
	if id != nil {
		err := r.db.SelectContext(ctx, &out, "SELECT "+businessColumns+" FROM businesses WHERE id = ?", *id)
		return out, err
	}
	err := r.db.SelectContext(ctx, &out, "SELECT "+businessColumns+" FROM businesses ORDER BY name")
	return out, err
}

// Create inserts b and reloads it so timestamps and defaults are populated.
func (r *BusinessRepo) Create(ctx context.Context, b *model.Business) error {
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO businesses
		(name, currency_code, currency_symbol, address_line1, address_line2, city, postcode, country, phone, owner_id)
		VALUES (:name, :currency_code, :currency_symbol, :address_line1, :address_line2, :city, :postcode, :country, :phone, :owner_id)`, b)
	if err != nil {
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
	*b = *created
	return nil
}
