package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/payment/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL,
		order_reference TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		payment_method TEXT NOT NULL,
		customer_firstname TEXT NOT NULL DEFAULT '',
		customer_lastname TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Payment, eventType string, payload []byte, headers map[string]string, traceparent string) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id int64
	err = tx.QueryRow(ctx, `INSERT INTO payments (order_id, order_reference, amount, payment_method,
			customer_firstname, customer_lastname, customer_email, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		p.OrderID, p.OrderReference, p.Amount, p.PaymentMethod,
		p.Customer.FirstName, p.Customer.LastName, p.Customer.Email, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := outbox.Append(ctx, tx, "payment", p.OrderReference, eventType, payload, headers, traceparent); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, order_reference, amount, payment_method,
		customer_firstname, customer_lastname, customer_email, created_at FROM payments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.OrderReference, &p.Amount, &p.PaymentMethod,
			&p.Customer.FirstName, &p.Customer.LastName, &p.Customer.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
