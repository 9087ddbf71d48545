package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Facugl/microservices-ecommerce/internal/customer/application"
	"github.com/Facugl/microservices-ecommerce/internal/customer/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		firstname TEXT NOT NULL DEFAULT '',
		lastname TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		street TEXT,
		house_number TEXT,
		zip_code TEXT
	)`)
	return err
}

func (r *Repository) Save(ctx context.Context, c domain.Customer) error {
	var street, house, zip *string
	if c.Address != nil {
		street, house, zip = &c.Address.Street, &c.Address.HouseNumber, &c.Address.ZipCode
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO customers (id, firstname, lastname, email, street, house_number, zip_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET firstname=$2, lastname=$3, email=$4, street=$5, house_number=$6, zip_code=$7`,
		c.ID, c.FirstName, c.LastName, c.Email, street, house, zip)
	return err
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	var street, house, zip *string
	err := r.pool.QueryRow(ctx, `SELECT id, firstname, lastname, email, street, house_number, zip_code FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &street, &house, &zip)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Customer{}, application.ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, err
	}
	if street != nil || house != nil || zip != nil {
		c.Address = &domain.Address{}
		if street != nil {
			c.Address.Street = *street
		}
		if house != nil {
			c.Address.HouseNumber = *house
		}
		if zip != nil {
			c.Address.ZipCode = *zip
		}
	}
	return c, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, firstname, lastname, email, street, house_number, zip_code FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		var street, house, zip *string
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &street, &house, &zip); err != nil {
			return nil, err
		}
		if street != nil || house != nil || zip != nil {
			addr := domain.Address{}
			if street != nil {
				addr.Street = *street
			}
			if house != nil {
				addr.HouseNumber = *house
			}
			if zip != nil {
				addr.ZipCode = *zip
			}
			c.Address = &addr
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE id=$1`, id).Scan(&n)
	return n > 0, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	return err
}
