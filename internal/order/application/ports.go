package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type OrderRepository interface {
	// Save persists the order and its lines as a single transaction and
	// returns the assigned order id.
	Save(ctx context.Context, o domain.Order) (int64, error)
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	FindByReference(ctx context.Context, reference string) (domain.Order, bool, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	// MarkCancelled is a logical delete; the row stays for audit.
	MarkCancelled(ctx context.Context, id int64) error
}

// SagaLog records every state transition of an order-creation attempt.
type SagaLog interface {
	Append(ctx context.Context, entry domain.SagaLogEntry) error
}

type CustomerDirectory interface {
	// FindByID returns ErrCustomerNotFound when the id is unknown.
	FindByID(ctx context.Context, id string) (domain.Customer, error)
}

type InventoryReservation interface {
	// Reserve holds stock for every line all-or-nothing; an
	// InsufficientStockError means nothing was held.
	Reserve(ctx context.Context, reference string, lines []domain.PurchaseLine) (domain.Reservation, error)
	// Release is idempotent and safe to call on unknown ids.
	Release(ctx context.Context, reservationID string) error
}

type PaymentOrder struct {
	Amount         decimal.Decimal
	PaymentMethod  string
	OrderID        int64
	OrderReference string
	Customer       domain.Customer
}

type PaymentInitiator interface {
	// Initiate records the payment attempt downstream; success means
	// "accepted for processing", not settlement.
	Initiate(ctx context.Context, p PaymentOrder) error
}

type EventPublisher interface {
	PublishOrderConfirmation(ctx context.Context, oc domain.OrderConfirmation) error
}
