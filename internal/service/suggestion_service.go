package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

// SuggestionService accepts AI price-suggestion jobs and exposes their state.
// A job's only durable trace is its cache entry, so an expired entry means an
// unknown job.
type SuggestionService struct {
	history     PriceHistoryRepository
	cache       Cache
	suggestions Publisher
	historySize int
	log         *logrus.Logger
	newJobID    func() string
}

func NewSuggestionService(history PriceHistoryRepository, c Cache, suggestions Publisher, historySize int, log *logrus.Logger) *SuggestionService {
	if historySize <= 0 {
		historySize = 5
	}
	return &SuggestionService{
		history:     history,
		cache:       c,
		suggestions: suggestions,
		historySize: historySize,
		log:         log,
		newJobID:    uuid.NewString,
	}
}

// RequestSuggestion enqueues a suggestion job built from the last N history
// snapshots and returns immediately with a pending job id. It never waits on
// the AI call.
func (s *SuggestionService) RequestSuggestion(ctx context.Context, sellerID, sku string) (*models.SuggestionJob, error) {
	rows, err := s.history.FindBySellerIDAndSKU(ctx, sellerID, sku, s.historySize, 0)
	if err != nil {
		return nil, apperr.Internal(err, "loading history %s/%s", sellerID, sku)
	}
	if len(rows) == 0 {
		return nil, apperr.HistoryNotFound(sellerID, sku)
	}

	// Rows come newest-first; the prompt wants oldest-first.
	history := make([]models.HistoryEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history, models.HistoryEntry{De: rows[i].De, Por: rows[i].Por})
	}

	jobID := s.newJobID()
	request := models.SuggestionRequest{
		SellerID: sellerID,
		SKU:      sku,
		History:  history,
		JobID:    jobID,
	}
	if err := s.suggestions.Publish(sellerID+":"+sku, request); err != nil {
		return nil, apperr.Internal(err, "enqueueing suggestion %s/%s", sellerID, sku)
	}

	pending := models.SuggestionResult{Status: models.SuggestionStatusPending, SuggestedPrice: nil}
	if err := s.cache.SetJSON(ctx, cache.SuggestionKey(jobID), pending); err != nil {
		// The job is already queued; the worker's final write will create the
		// entry. Until then the status endpoint reports the job as unknown.
		s.log.WithError(err).WithFields(logrus.Fields{"seller_id": sellerID, "sku": sku, "job_id": jobID}).
			Warn("failed to cache pending suggestion state")
	}

	return &models.SuggestionJob{JobID: jobID, Status: models.SuggestionStatusPending}, nil
}

// GetSuggestion returns the cached job state as-is; it may still be pending.
func (s *SuggestionService) GetSuggestion(ctx context.Context, jobID string) (*models.SuggestionResult, error) {
	var result models.SuggestionResult
	hit, err := s.cache.GetJSON(ctx, cache.SuggestionKey(jobID), &result)
	if err != nil {
		return nil, apperr.Internal(err, "reading suggestion %s", jobID)
	}
	if !hit {
		return nil, apperr.UnknownJob(jobID)
	}
	return &result, nil
}
