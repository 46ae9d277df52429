package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"gavel/pkg/requestcontext"
)

// Store persists the audit trail. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID string) ([]Event, error)
}

// Sink is an optional secondary fan-out (Kafka). Failures are logged, never
// propagated: the local store is the durable record.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events, enriching them with request
// metadata from context before handing them to the store and sink.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

func NewPublisher(store Store, sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, sink: sink, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"event_id", event.ID.String(),
				"error", err,
			)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, accountID string) ([]Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}
