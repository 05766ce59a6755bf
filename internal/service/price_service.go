// Package service implements the price mutation pipeline and the suggestion
// job workflow.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/repository"
)

// variationThreshold is the relative "por" swing above which a mutation is
// flagged as suspicious. The comparison is strict: exactly 50% does not alert.
const variationThreshold = 0.5

// PriceRepository is the durable price store.
type PriceRepository interface {
	FindBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (*models.Price, error)
	Create(ctx context.Context, price *models.Price) error
	UpdateBySellerIDAndSKU(ctx context.Context, sellerID, sku string, price *models.Price) (*models.Price, error)
	DeleteBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Price, error)
}

// PriceHistoryRepository is the append-only snapshot log.
type PriceHistoryRepository interface {
	Append(ctx context.Context, snapshot *models.PriceHistory) error
	FindBySellerIDAndSKU(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.PriceHistory, error)
}

// Cache is the advisory read-through cache. Absence is a normal outcome.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Publisher enqueues a JSON payload on a queue topic.
type Publisher interface {
	Publish(key string, payload any) error
}

// Spawner runs fire-and-forget work detached from the request.
type Spawner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// PriceService orchestrates every price mutation across the store, the
// history log, the cache and the alert queue.
type PriceService struct {
	prices  PriceRepository
	history PriceHistoryRepository
	cache   Cache
	alerts  Publisher
	spawner Spawner
	log     *logrus.Logger
	now     func() time.Time
}

func NewPriceService(prices PriceRepository, history PriceHistoryRepository, c Cache, alerts Publisher, spawner Spawner, log *logrus.Logger) *PriceService {
	return &PriceService{
		prices:  prices,
		history: history,
		cache:   c,
		alerts:  alerts,
		spawner: spawner,
		log:     log,
		now:     time.Now,
	}
}

// GetBySellerIDAndSKU reads a price, trying the cache first and repopulating
// it on a miss. Cache failures are logged and treated as misses.
func (s *PriceService) GetBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (*models.Price, error) {
	key := cache.PriceKey(sellerID, sku)

	var cached models.Price
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"seller_id": sellerID, "sku": sku}).
			Warn("cache read failed, falling back to store")
	}
	if hit {
		return &cached, nil
	}

	price, err := s.prices.FindBySellerIDAndSKU(ctx, sellerID, sku)
	if err != nil {
		return nil, apperr.Internal(err, "finding price %s/%s", sellerID, sku)
	}
	if price == nil {
		return nil, apperr.PriceNotFound(sellerID, sku)
	}

	if err := s.cache.SetJSON(ctx, key, price); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"seller_id": sellerID, "sku": sku}).
			Warn("cache populate failed")
	}
	return price, nil
}

// Create registers a new price for (seller_id, sku). The pre-check gives the
// friendly conflict payload; the unique index on pc_preco backs it up under
// concurrent duplicate creates.
func (s *PriceService) Create(ctx context.Context, principal models.AuditUser, sellerID, sku string, de, por int) (*models.Price, error) {
	existing, err := s.prices.FindBySellerIDAndSKU(ctx, sellerID, sku)
	if err != nil {
		return nil, apperr.Internal(err, "checking existing price %s/%s", sellerID, sku)
	}
	if existing != nil {
		return nil, apperr.Conflict("Preço para produto já cadastrado.", "sku",
			map[string]any{"seller_id": sellerID, "sku": sku})
	}

	if err := validatePositive(de, "de"); err != nil {
		return nil, err
	}
	if err := validatePositive(por, "por"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	price := &models.Price{
		SellerID:  sellerID,
		SKU:       sku,
		De:        de,
		Por:       por,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: principal,
		UpdatedBy: principal,
	}

	if err := s.prices.Create(ctx, price); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Conflict("Preço para produto já cadastrado.", "sku",
				map[string]any{"seller_id": sellerID, "sku": sku})
		}
		return nil, apperr.Internal(err, "creating price %s/%s", sellerID, sku)
	}

	if err := s.appendHistory(ctx, price); err != nil {
		return nil, err
	}

	// Defensive: clear any stale negative entry left by a previous delete.
	s.invalidate(ctx, sellerID, sku)

	return price, nil
}

// Update replaces the "de"/"por" pair of an existing price.
func (s *PriceService) Update(ctx context.Context, principal models.AuditUser, sellerID, sku string, de, por int) (*models.Price, error) {
	return s.mutate(ctx, principal, sellerID, sku, func(current *models.Price) {
		current.De = de
		current.Por = por
	})
}

// Patch merges only the supplied fields onto the stored price, then runs the
// same validation/variation/history/cache pipeline as Update.
func (s *PriceService) Patch(ctx context.Context, principal models.AuditUser, sellerID, sku string, patch models.PricePatch) (*models.Price, error) {
	return s.mutate(ctx, principal, sellerID, sku, func(current *models.Price) {
		if patch.De != nil {
			current.De = *patch.De
		}
		if patch.Por != nil {
			current.Por = *patch.Por
		}
	})
}

// mutate loads the current record, applies the caller's changes and runs the
// shared pipeline: validate, detect variation, write, append history,
// invalidate cache, and conditionally enqueue an alert.
func (s *PriceService) mutate(ctx context.Context, principal models.AuditUser, sellerID, sku string, apply func(*models.Price)) (*models.Price, error) {
	current, err := s.prices.FindBySellerIDAndSKU(ctx, sellerID, sku)
	if err != nil {
		return nil, apperr.Internal(err, "finding price %s/%s", sellerID, sku)
	}
	if current == nil {
		return nil, apperr.PriceNotFound(sellerID, sku)
	}
	if current.AlertaPendente {
		return nil, apperr.Validation(
			"Não é possível atualizar o preço enquanto houver alerta pendente.",
			"alerta_pendente",
			map[string]any{"seller_id": sellerID, "sku": sku},
		)
	}

	oldPor := current.Por
	next := *current
	apply(&next)

	if err := validatePositive(next.De, "de"); err != nil {
		return nil, err
	}
	if err := validatePositive(next.Por, "por"); err != nil {
		return nil, err
	}

	suspicious := variation(oldPor, next.Por) > variationThreshold
	next.AlertaPendente = suspicious
	next.UpdatedAt = s.now().UTC()
	next.UpdatedBy = principal

	updated, err := s.prices.UpdateBySellerIDAndSKU(ctx, sellerID, sku, &next)
	if err != nil {
		return nil, apperr.Internal(err, "updating price %s/%s", sellerID, sku)
	}
	if updated == nil {
		// Row vanished between the read and the write.
		return nil, apperr.PriceNotFound(sellerID, sku)
	}

	if err := s.appendHistory(ctx, updated); err != nil {
		return nil, err
	}

	s.invalidate(ctx, sellerID, sku)

	if suspicious {
		s.enqueueAlert(sellerID, sku, oldPor, updated.Por)
	}

	return updated, nil
}

// Delete removes a price. History is kept.
func (s *PriceService) Delete(ctx context.Context, sellerID, sku string) error {
	current, err := s.prices.FindBySellerIDAndSKU(ctx, sellerID, sku)
	if err != nil {
		return apperr.Internal(err, "finding price %s/%s", sellerID, sku)
	}
	if current == nil {
		return apperr.PriceNotFound(sellerID, sku)
	}

	removed, err := s.prices.DeleteBySellerIDAndSKU(ctx, sellerID, sku)
	if err != nil {
		return apperr.Internal(err, "deleting price %s/%s", sellerID, sku)
	}
	if !removed {
		// The precondition held but the delete matched nothing.
		return apperr.Conflict("Preço removido por outra operação.", "sku",
			map[string]any{"seller_id": sellerID, "sku": sku})
	}

	s.invalidate(ctx, sellerID, sku)
	return nil
}

// List returns prices for the listing endpoint.
func (s *PriceService) List(ctx context.Context, limit, offset int) ([]models.Price, error) {
	out, err := s.prices.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err, "listing prices")
	}
	return out, nil
}

// History lists the snapshots for a key, most recent first.
func (s *PriceService) History(ctx context.Context, sellerID, sku string, limit, offset int) ([]models.PriceHistory, error) {
	rows, err := s.history.FindBySellerIDAndSKU(ctx, sellerID, sku, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err, "listing history %s/%s", sellerID, sku)
	}
	if len(rows) == 0 {
		return nil, apperr.HistoryNotFound(sellerID, sku)
	}
	return rows, nil
}

// appendHistory records the post-write state. History is part of the audit
// contract, so a failure here surfaces to the caller.
func (s *PriceService) appendHistory(ctx context.Context, price *models.Price) error {
	snapshot := &models.PriceHistory{
		SellerID:     price.SellerID,
		SKU:          price.SKU,
		De:           price.De,
		Por:          price.Por,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.history.Append(ctx, snapshot); err != nil {
		return apperr.Internal(err, "appending history %s/%s", price.SellerID, price.SKU)
	}
	return nil
}

// invalidate drops the cached price. Cache failures never fail the mutation.
func (s *PriceService) invalidate(ctx context.Context, sellerID, sku string) {
	if err := s.cache.Delete(ctx, cache.PriceKey(sellerID, sku)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"seller_id": sellerID, "sku": sku}).
			Warn("cache invalidation failed")
	}
}

// enqueueAlert hands the anomaly message to the alerts topic on a detached
// task. Failures are logged and never reach the caller.
func (s *PriceService) enqueueAlert(sellerID, sku string, oldPor, newPor int) {
	msg := models.AlertMessage{
		SellerID: sellerID,
		SKU:      sku,
		Mensagem: fmt.Sprintf("Variação de preço superior a 50%% para o sku %s: 'por' mudou de %d para %d.", sku, oldPor, newPor),
		Status:   models.AlertStatusPending,
	}
	s.spawner.Go("enqueue-alert", func(ctx context.Context) error {
		return s.alerts.Publish(sellerID+":"+sku, msg)
	})
}

// variation is the relative change of "por": abs(new-old)/old. Zero when the
// stored value is not positive.
func variation(oldPor, newPor int) float64 {
	if oldPor <= 0 {
		return 0
	}
	return math.Abs(float64(newPor-oldPor)) / float64(oldPor)
}

func validatePositive(value int, field string) error {
	if value <= 0 {
		return apperr.Validation(
			fmt.Sprintf("O campo '%s' deve ser maior que zero.", field),
			field,
			map[string]any{"value": value},
		)
	}
	return nil
}
