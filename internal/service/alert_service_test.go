package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

type mockAlertRepo struct {
	alerts []models.Alert
}

func (m *mockAlertRepo) Create(_ context.Context, alert *models.Alert) error {
	alert.ID = int64(len(m.alerts) + 1)
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *mockAlertRepo) FindBySellerID(_ context.Context, sellerID, sku string, limit, offset int) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.alerts {
		if a.SellerID != sellerID {
			continue
		}
		if sku != "" && a.SKU != sku {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func TestCreateAlertFromMessage(t *testing.T) {
	repo := &mockAlertRepo{}
	svc := NewAlertService(repo)

	alert, err := svc.CreateFromMessage(context.Background(), models.AlertMessage{
		SellerID: "1",
		SKU:      "A",
		Mensagem: "variação suspeita",
	})

	require.NoError(t, err)
	assert.NotZero(t, alert.ID)
	assert.Equal(t, models.AlertStatusPending, alert.Status)
	assert.False(t, alert.CreatedAt.IsZero())
}

func TestListAlertsFiltersBySKU(t *testing.T) {
	repo := &mockAlertRepo{}
	svc := NewAlertService(repo)
	ctx := context.Background()

	for _, sku := range []string{"A", "B", "A"} {
		_, err := svc.CreateFromMessage(ctx, models.AlertMessage{SellerID: "1", SKU: sku, Mensagem: "m"})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "1", "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := svc.List(ctx, "1", "A", 50, 0)
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	other, err := svc.List(ctx, "2", "", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
