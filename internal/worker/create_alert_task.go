package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/queue"
)

// AlertCreator persists an alert carried by a queue message.
type AlertCreator interface {
	CreateFromMessage(ctx context.Context, msg models.AlertMessage) (*models.Alert, error)
}

// CreateAlertTask drains the alerts queue into pc_alertas.
type CreateAlertTask struct {
	source       MessageSource
	alerts       AlertCreator
	pollInterval time.Duration
	log          *logrus.Logger

	mu      sync.Mutex
	running bool
}

func NewCreateAlertTask(source MessageSource, alerts AlertCreator, pollInterval time.Duration, log *logrus.Logger) *CreateAlertTask {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &CreateAlertTask{
		source:       source,
		alerts:       alerts,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Close requests a cooperative stop of the Run loop.
func (t *CreateAlertTask) Close() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *CreateAlertTask) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Run polls for alert messages until ctx is done or Close is called.
func (t *CreateAlertTask) Run(ctx context.Context) {
	t.log.Info("alert task started")
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

func (t *CreateAlertTask) process(ctx context.Context, msg *queue.Message) {
	var alert models.AlertMessage
	if err := json.Unmarshal(msg.Value, &alert); err != nil {
		t.log.WithError(err).Error("dropping malformed alert message")
		msg.Ack()
		return
	}

	logger := t.log.WithFields(logrus.Fields{"seller_id": alert.SellerID, "sku": alert.SKU})

	if _, err := t.alerts.CreateFromMessage(ctx, alert); err != nil {
		logger.WithError(err).Error("failed to persist alert, message not acked")
		return
	}

	msg.Ack()
	logger.Info("alert persisted")
}
