package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/product/application"
	"github.com/Facugl/microservices-ecommerce/internal/product/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		available_quantity INT NOT NULL CHECK (available_quantity >= 0)
	)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reservation_items (
		reservation_id TEXT NOT NULL REFERENCES reservations(id),
		product_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (reservation_id, product_id)
	)`)
	return err
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, description, price, available_quantity)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		p.Name, p.Description, p.Price, p.AvailableQuantity).Scan(&id)
	return id, err
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, price, available_quantity FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AvailableQuantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrProductNotFound
	}
	return p, err
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, price, available_quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AvailableQuantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

// Reserve locks every requested product row, verifies availability, and
// decrements within one transaction. Any shortage rolls the whole batch
// back; concurrent reservations of the same product serialise on the
// row lock, so stock never goes negative.
func (r *Repository) Reserve(ctx context.Context, reservationID, reference string, items []domain.PurchaseItem) (domain.Reservation, []domain.Shortage, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Reservation{}, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	res := domain.Reservation{
		ID:        reservationID,
		Reference: reference,
		Status:    domain.ReservationReserved,
	}
	var shortages []domain.Shortage

	for _, it := range items {
		var p domain.PurchasedProduct
		var available int
		err := tx.QueryRow(ctx, `SELECT name, description, price, available_quantity FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).
			Scan(&p.Name, &p.Description, &p.Price, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			shortages = append(shortages, domain.Shortage{ProductID: it.ProductID, Requested: it.Quantity, Available: 0})
			continue
		}
		if err != nil {
			return domain.Reservation{}, nil, err
		}
		if available < it.Quantity {
			shortages = append(shortages, domain.Shortage{ProductID: it.ProductID, Requested: it.Quantity, Available: available})
			continue
		}

		if _, err := tx.Exec(ctx, `UPDATE products SET available_quantity = available_quantity - $2 WHERE id=$1`, it.ProductID, it.Quantity); err != nil {
			return domain.Reservation{}, nil, err
		}
		p.ProductID = it.ProductID
		p.Quantity = it.Quantity
		res.Products = append(res.Products, p)
	}

	if len(shortages) > 0 {
		return domain.Reservation{}, shortages, nil // rollback via defer
	}

	if _, err := tx.Exec(ctx, `INSERT INTO reservations (id, reference, status) VALUES ($1,$2,$3)`,
		res.ID, res.Reference, res.Status); err != nil {
		return domain.Reservation{}, nil, err
	}
	for _, p := range res.Products {
		if _, err := tx.Exec(ctx, `INSERT INTO reservation_items (reservation_id, product_id, name, description, price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			res.ID, p.ProductID, p.Name, p.Description, p.Price, p.Quantity); err != nil {
			return domain.Reservation{}, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Reservation{}, nil, err
	}
	return res, nil, nil
}

func (r *Repository) FindReservationByReference(ctx context.Context, reference string) (domain.Reservation, bool, error) {
	var res domain.Reservation
	err := r.pool.QueryRow(ctx, `SELECT id, reference, status FROM reservations WHERE reference=$1`, reference).
		Scan(&res.ID, &res.Reference, &res.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reservation{}, false, nil
	}
	if err != nil {
		return domain.Reservation{}, false, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, name, description, price, quantity FROM reservation_items WHERE reservation_id=$1`, res.ID)
	if err != nil {
		return domain.Reservation{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.PurchasedProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
			return domain.Reservation{}, false, err
		}
		res.Products = append(res.Products, p)
	}
	return res, true, rows.Err()
}

// Release flips the reservation to RELEASED and re-increments stock. The
// status guard on the UPDATE makes repeated releases no-ops.
func (r *Repository) Release(ctx context.Context, reservationID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE reservations SET status='RELEASED' WHERE id=$1 AND status='RESERVED'`, reservationID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// Unknown or already released: nothing to undo.
		return tx.Commit(ctx)
	}

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM reservation_items WHERE reservation_id=$1`, reservationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type held struct {
		productID int64
		quantity  int
	}
	var holds []held
	for rows.Next() {
		var h held
		if err := rows.Scan(&h.productID, &h.quantity); err != nil {
			return err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, h := range holds {
		if _, err := tx.Exec(ctx, `UPDATE products SET available_quantity = available_quantity + $2 WHERE id=$1`, h.productID, h.quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
