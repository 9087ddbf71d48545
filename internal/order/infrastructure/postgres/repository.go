package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/order/application"
	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS order_lines (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0)
	)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS saga_log (
		id BIGSERIAL PRIMARY KEY,
		reference TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

func (r *Repository) Save(ctx context.Context, o domain.Order) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id int64
	err = tx.QueryRow(ctx, `INSERT INTO orders (reference, customer_id, total_amount, payment_method, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		o.Reference, o.CustomerID, o.TotalAmount, o.PaymentMethod, o.Status, o.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, line := range o.Lines {
		batch.Queue(`INSERT INTO order_lines (order_id, product_id, quantity) VALUES ($1,$2,$3)`,
			id, line.ProductID, line.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, reference, customer_id, total_amount, payment_method, status, created_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Reference, &o.CustomerID, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, application.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) FindByReference(ctx context.Context, reference string) (domain.Order, bool, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, reference, customer_id, total_amount, payment_method, status, created_at
		FROM orders WHERE reference=$1`, reference).
		Scan(&o.ID, &o.Reference, &o.CustomerID, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, reference, customer_id, total_amount, payment_method, status, created_at
		FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = r.lines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) MarkCancelled(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, id, domain.StatusCancelled)
	return err
}

func (r *Repository) lines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SagaStore persists the append-only saga log next to the orders it
// describes.
type SagaStore struct {
	pool *pgxpool.Pool
}

func NewSagaStore(pool *pgxpool.Pool) *SagaStore {
	return &SagaStore{pool: pool}
}

func (s *SagaStore) Append(ctx context.Context, entry domain.SagaLogEntry) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO saga_log (reference, state, error, updated_at) VALUES ($1,$2,$3,$4)`,
		entry.Reference, entry.State, entry.Error, entry.UpdatedAt)
	return err
}
