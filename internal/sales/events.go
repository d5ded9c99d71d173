package sales

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SaleCreated announces a persisted sale. Consumers must be idempotent on SaleID.
type SaleCreated struct {
	SaleID   string    `json:"sale_id"`
	Customer string    `json:"customer"`
	SaleDate time.Time `json:"sale_date"`
}

// Publisher delivers sale notifications to an outbound channel.
type Publisher interface {
	Publish(ctx context.Context, event SaleCreated) error
}

// LogPublisher writes notifications to the log only.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that logs every event.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event SaleCreated) error {
	p.logger.Info("sale created event",
		zap.String("sale_id", event.SaleID),
		zap.String("customer", event.Customer),
		zap.Time("sale_date", event.SaleDate),
	)
	return nil
}
