package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/outbox"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

const eventOrderConfirmation = "OrderConfirmation"

// Publisher hands order confirmations to the outbox. The enqueue is the
// only fallible part the saga sees; delivery and redelivery to Kafka
// belong to the relay.
type Publisher struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPublisher(log *slog.Logger, pool *pgxpool.Pool) *Publisher {
	return &Publisher{log: log, pool: pool}
}

func (p *Publisher) PublishOrderConfirmation(ctx context.Context, oc domain.OrderConfirmation) error {
	payload, err := json.Marshal(oc)
	if err != nil {
		return err
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	headers := map[string]string{"source": "order-service"}
	if err := outbox.Append(ctx, tx, "order", oc.OrderReference, eventOrderConfirmation, payload, headers, tracing.Traceparent(ctx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
