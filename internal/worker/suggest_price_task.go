package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/cache"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/queue"
)

// MessageSource is the polling side of a queue channel.
type MessageSource interface {
	Poll() (*queue.Message, bool)
}

// Cache is the subset of the cache the tasks write job state to.
type Cache interface {
	SetJSON(ctx context.Context, key string, value any) error
}

// Completer produces a suggested price from a price history.
type Completer interface {
	SuggestPrice(ctx context.Context, sellerID, sku string, history []models.HistoryEntry) (string, error)
}

// SuggestPriceTask drains the suggestion queue: poll, call the completion
// service, write the result to the cache, then ack. A processing failure
// leaves the message unacked so the broker's redelivery policy applies, and
// the job stays pending from the client's perspective.
type SuggestPriceTask struct {
	source       MessageSource
	cache        Cache
	completer    Completer
	pollInterval time.Duration
	log          *logrus.Logger

	mu      sync.Mutex
	running bool
}

func NewSuggestPriceTask(source MessageSource, c Cache, completer Completer, pollInterval time.Duration, log *logrus.Logger) *SuggestPriceTask {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &SuggestPriceTask{
		source:       source,
		cache:        c,
		completer:    completer,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Close requests a cooperative stop of the Run loop.
func (t *SuggestPriceTask) Close() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *SuggestPriceTask) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Run executes the poll loop until ctx is done or Close is called:
// fetch -> process -> ack/drop, sleeping one interval when the queue is empty.
func (t *SuggestPriceTask) Run(ctx context.Context) {
	t.log.Info("suggestion task started")
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()

	for t.isRunning() {
		msg, ok := t.source.Poll()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.pollInterval):
			}
			continue
		}
		t.process(ctx, msg)
	}
}

func (t *SuggestPriceTask) process(ctx context.Context, msg *queue.Message) {
	var request models.SuggestionRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		// A payload that can never decode would redeliver forever; ack it away.
		t.log.WithError(err).Error("dropping malformed suggestion message")
		msg.Ack()
		return
	}

	logger := t.log.WithFields(logrus.Fields{
		"seller_id": request.SellerID,
		"sku":       request.SKU,
		"job_id":    request.JobID,
	})
	logger.Info("generating price suggestion")

	suggested, err := t.completer.SuggestPrice(ctx, request.SellerID, request.SKU, request.History)
	if err != nil {
		logger.WithError(err).Error("completion call failed, message not acked")
		return
	}

	result := models.SuggestionResult{Status: models.SuggestionStatusDone, SuggestedPrice: &suggested}
	if err := t.cache.SetJSON(ctx, cache.SuggestionKey(request.JobID), result); err != nil {
		logger.WithError(err).Error("failed to store suggestion result, message not acked")
		return
	}

	// Ack only after the result is visible to pollers.
	msg.Ack()
	logger.WithField("suggested_price", suggested).Info("price suggestion stored")
}
