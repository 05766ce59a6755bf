package service

import (
	"context"
	"time"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

// AlertRepository persists anomaly alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	FindBySellerID(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.Alert, error)
}

// AlertService creates alerts from queue messages (worker side) and lists
// them for the API.
type AlertService struct {
	alerts AlertRepository
	now    func() time.Time
}

func NewAlertService(alerts AlertRepository) *AlertService {
	return &AlertService{alerts: alerts, now: time.Now}
}

// CreateFromMessage stores the alert carried by a queue message.
func (s *AlertService) CreateFromMessage(ctx context.Context, msg models.AlertMessage) (*models.Alert, error) {
	status := msg.Status
	if status == "" {
		status = models.AlertStatusPending
	}
	now := s.now().UTC()
	alert := &models.Alert{
		SellerID:  msg.SellerID,
		SKU:       msg.SKU,
		Mensagem:  msg.Mensagem,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, apperr.Internal(err, "creating alert %s/%s", msg.SellerID, msg.SKU)
	}
	return alert, nil
}

// List returns a seller's alerts, optionally filtered by SKU.
func (s *AlertService) List(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.Alert, error) {
	out, err := s.alerts.FindBySellerID(ctx, sellerID, sku, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err, "listing alerts for %s", sellerID)
	}
	return out, nil
}
