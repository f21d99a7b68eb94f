// Package worker turns deposit messages from the broker into rows of the
// local SQLite warehouse.
package worker

import (
	"context"
	"errors"
	"fmt"

	"platinum/internal/amqp"
	applog "platinum/internal/log"
	"platinum/internal/metrics"
	"platinum/internal/warehouse"
)

// Ingest results recorded in metrics.
const (
	ResultStored   = "stored"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// IngestWorker stores deposit events as they arrive.
type IngestWorker struct {
	writer  warehouse.DepositWriter
	metrics *metrics.Metrics
	logger  *applog.Logger
}

func NewIngestWorker(writer warehouse.DepositWriter, m *metrics.Metrics, logger *applog.Logger) *IngestWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &IngestWorker{
		writer:  writer,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleDepositMessage validates and stores one message. Errors wrapping
// warehouse.ErrInvalidEvent mean the message can never succeed.
func (w *IngestWorker) HandleDepositMessage(ctx context.Context, msg *amqp.DepositMessage) error {
	event, err := msg.ToEvent()
	if err != nil {
		w.metrics.DepositIngested(ResultRejected)
		w.logger.WarnContext(ctx, "Rejected deposit message",
			"deposit_id", msg.ID,
			"date", msg.Date,
			applog.FieldError, err)
		return err
	}

	if err := w.writer.InsertDeposit(ctx, event); err != nil {
		if errors.Is(err, warehouse.ErrInvalidEvent) {
			w.metrics.DepositIngested(ResultRejected)
			return err
		}
		w.metrics.DepositIngested(ResultFailed)
		return fmt.Errorf("store deposit %s: %w", event.ID, err)
	}

	w.metrics.DepositIngested(ResultStored)
	w.logger.DebugContext(ctx, "Deposit stored",
		"deposit_id", event.ID,
		"date", event.Date.String(),
		"amount", event.Amount)
	return nil
}

// Consumer is the broker side the worker runs on.
type Consumer interface {
	ConsumeDeposits(ctx context.Context, handler func(context.Context, *amqp.DepositMessage) error) error
}

// Run consumes until ctx is cancelled. A cancelled context is not an error.
func (w *IngestWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Deposit ingest worker started")
	err := c.ConsumeDeposits(ctx, w.HandleDepositMessage)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Deposit ingest worker stopped")
		return nil
	}
	return err
}
