package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/notification/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		order_reference TEXT NOT NULL,
		recipient TEXT NOT NULL,
		message TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL,
		UNIQUE (type, order_reference)
	)`)
	return err
}

func (r *Repository) Save(ctx context.Context, n domain.Notification) (bool, error) {
	ct, err := r.pool.Exec(ctx, `INSERT INTO notifications (type, order_reference, recipient, message, sent_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (type, order_reference) DO NOTHING`,
		n.Type, n.OrderReference, n.Recipient, n.Message, n.SentAt)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
