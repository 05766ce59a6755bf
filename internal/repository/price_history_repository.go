package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

// PriceHistoryRepository is append-only: rows in pc_preco_historico are
// never updated or deleted by the service.
type PriceHistoryRepository struct {
	db *sqlx.DB
}

func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// Append records a price snapshot.
func (r *PriceHistoryRepository) Append(ctx context.Context, snapshot *models.PriceHistory) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO pc_preco_historico (seller_id, sku, de, por, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, snapshot.SellerID, snapshot.SKU, snapshot.De, snapshot.Por, snapshot.RegisteredAt,
	).Scan(&snapshot.ID)
	return errors.Wrap(err, "appending price history")
}

// FindBySellerIDAndSKU lists snapshots for a key, most recent first.
func (r *PriceHistoryRepository) FindBySellerIDAndSKU(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.PriceHistory, error) {
	var out []models.PriceHistory
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, seller_id, sku, de, por, registered_at
		FROM pc_preco_historico
		WHERE seller_id = $1 AND sku = $2
		ORDER BY registered_at DESC
		LIMIT $3 OFFSET $4
	`, sellerID, sku, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "querying price history")
	}
	return out, nil
}
