package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Facugl/microservices-ecommerce/internal/product/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidReservation marks caller mistakes in a reservation
	// request, as opposed to repository failures that are worth a retry.
	ErrInvalidReservation = errors.New("invalid reservation request")
)

// InsufficientStockError rejects a whole reservation batch, naming every
// product that fell short. No partial stock is held when it is returned.
type InsufficientStockError struct {
	Shortages []domain.Shortage
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortages))
}

type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p domain.Product) (int64, error) {
	if p.Name == "" {
		return 0, errors.New("product name is required")
	}
	if p.AvailableQuantity < 0 {
		return 0, errors.New("available quantity must not be negative")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) FindAll(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Reserve takes an all-or-nothing hold on every requested item. A repeat
// call with a reference that already holds a reservation returns the
// existing one, so order-creation retries never double-decrement.
func (s *Service) Reserve(ctx context.Context, reference string, items []domain.PurchaseItem) (domain.Reservation, error) {
	if reference == "" {
		return domain.Reservation{}, fmt.Errorf("%w: reference is required", ErrInvalidReservation)
	}
	if len(items) == 0 {
		return domain.Reservation{}, fmt.Errorf("%w: at least one item is required", ErrInvalidReservation)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return domain.Reservation{}, fmt.Errorf("%w: quantity %d for product %d", ErrInvalidReservation, it.Quantity, it.ProductID)
		}
	}

	existing, found, err := s.repo.FindReservationByReference(ctx, reference)
	if err != nil {
		return domain.Reservation{}, err
	}
	if found && existing.Status == domain.ReservationReserved {
		return existing, nil
	}

	res, shortages, err := s.repo.Reserve(ctx, uuid.NewString(), reference, items)
	if err != nil {
		return domain.Reservation{}, err
	}
	if len(shortages) > 0 {
		return domain.Reservation{}, &InsufficientStockError{Shortages: shortages}
	}
	return res, nil
}

// Release is idempotent; releasing twice or releasing an unknown id is
// a no-op because compensation may race with request retries.
func (s *Service) Release(ctx context.Context, reservationID string) error {
	return s.repo.Release(ctx, reservationID)
}
