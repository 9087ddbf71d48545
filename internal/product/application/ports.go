package application

import (
	"context"

	"github.com/Facugl/microservices-ecommerce/internal/product/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (int64, error)
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id int64) error

	// Reserve atomically checks and decrements every requested product
	// as one transaction. Either a reservation covering all items is
	// created, or no stock moves and the shortages are reported.
	Reserve(ctx context.Context, reservationID, reference string, items []domain.PurchaseItem) (domain.Reservation, []domain.Shortage, error)

	// FindReservationByReference returns the reservation previously taken
	// for an order reference, if any.
	FindReservationByReference(ctx context.Context, reference string) (domain.Reservation, bool, error)

	// Release re-increments the quantities held by a reservation. It is
	// a no-op for unknown or already released ids.
	Release(ctx context.Context, reservationID string) error
}
