package services

import (
	"context"

	"tenderledger/internal/amqp"
	applog "tenderledger/internal/log"
)

// EventPublisher announces committed ledger writes. *amqp.Client
// implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// publishEvent sends event when a publisher is configured. A failed publish
// is logged and never undoes the write.
func publishEvent(ctx context.Context, publisher EventPublisher, logger *applog.Logger, event *amqp.LedgerEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishLedgerEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish ledger event",
			applog.FieldEventKind, event.Kind,
			applog.FieldEventID, event.ID,
			applog.FieldError, err)
	}
}
