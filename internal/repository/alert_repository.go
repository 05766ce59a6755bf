package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create persists an anomaly alert consumed from the alerts queue.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO pc_alertas (seller_id, sku, mensagem, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, alert.SellerID, alert.SKU, alert.Mensagem, alert.Status, alert.CreatedAt, alert.UpdatedAt,
	).Scan(&alert.ID)
	return errors.Wrap(err, "inserting alert")
}

// FindBySellerID lists a seller's alerts, optionally filtered by SKU,
// newest first.
func (r *AlertRepository) FindBySellerID(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.Alert, error) {
	query := `
		SELECT id, seller_id, sku, mensagem, status, created_at, updated_at
		FROM pc_alertas
		WHERE seller_id = $1
	`
	args := []any{sellerID}
	if sku != "" {
		query += ` AND sku = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, sku, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	var out []models.Alert
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying alerts")
	}
	return out, nil
}
