// Package repository contains the Postgres persistence layer.
package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

// ErrDuplicateKey is returned when an insert violates the unique
// (seller_id, sku) index on pc_preco.
var ErrDuplicateKey = errors.New("duplicate seller_id/sku")

const uniqueViolation = "23505"

type PriceRepository struct {
	db *sqlx.DB
}

func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// FindBySellerIDAndSKU returns the price for (seller_id, sku), or nil when
// no row exists.
func (r *PriceRepository) FindBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (*models.Price, error) {
	var p models.Price
	err := r.db.GetContext(ctx, &p, `
		SELECT id, seller_id, sku, de, por, alerta_pendente,
		       created_at, updated_at, created_by, updated_by
		FROM pc_preco
		WHERE seller_id = $1 AND sku = $2
	`, sellerID, sku)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying price")
	}
	return &p, nil
}

// Create inserts a new price row. A unique-index violation on
// (seller_id, sku) is reported as ErrDuplicateKey.
func (r *PriceRepository) Create(ctx context.Context, price *models.Price) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO pc_preco (seller_id, sku, de, por, alerta_pendente, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, price.SellerID, price.SKU, price.De, price.Por, price.AlertaPendente,
		price.CreatedAt, price.UpdatedAt, price.CreatedBy, price.UpdatedBy,
	).Scan(&price.ID)
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicateKey
	}
	if err != nil {
		return errors.Wrap(err, "inserting price")
	}
	return nil
}

// UpdateBySellerIDAndSKU replaces the mutable fields of an existing price,
// preserving created_at/created_by. Returns nil when no row matched.
func (r *PriceRepository) UpdateBySellerIDAndSKU(ctx context.Context, sellerID, sku string, price *models.Price) (*models.Price, error) {
	var updated models.Price
	err := r.db.QueryRowxContext(ctx, `
		UPDATE pc_preco
		SET de = $3, por = $4, alerta_pendente = $5, updated_at = $6, updated_by = $7
		WHERE seller_id = $1 AND sku = $2
		RETURNING id, seller_id, sku, de, por, alerta_pendente,
		          created_at, updated_at, created_by, updated_by
	`, sellerID, sku, price.De, price.Por, price.AlertaPendente, price.UpdatedAt, price.UpdatedBy,
	).StructScan(&updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "updating price")
	}
	return &updated, nil
}

// DeleteBySellerIDAndSKU removes the price row, reporting whether one existed.
func (r *PriceRepository) DeleteBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pc_preco WHERE seller_id = $1 AND sku = $2
	`, sellerID, sku)
	if err != nil {
		return false, errors.Wrap(err, "deleting price")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "reading rows affected")
	}
	return n > 0, nil
}

// List returns prices ordered by creation date, newest first.
func (r *PriceRepository) List(ctx context.Context, limit, offset int) ([]models.Price, error) {
	var out []models.Price
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, seller_id, sku, de, por, alerta_pendente,
		       created_at, updated_at, created_by, updated_by
		FROM pc_preco
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "listing prices")
	}
	return out, nil
}
