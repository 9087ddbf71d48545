package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/retry"
)

// CreateOrderRequest carries the caller-supplied order. Reference is the
// idempotency key: retries with the same reference never create a second
// order or take a second stock decrement.
type CreateOrderRequest struct {
	Reference     string
	CustomerID    string
	Amount        decimal.Decimal
	PaymentMethod string
	Lines         []domain.PurchaseLine
}

// Coordinator drives one order-creation attempt through the saga state
// machine. The four remote collaborators are injected as interfaces;
// each remote call runs under its own timeout and a bounded retry
// budget for transient failures. Once inventory is reserved the saga
// always runs to a terminal state, compensated or confirmed.
type Coordinator struct {
	log       *slog.Logger
	repo      OrderRepository
	sagas     SagaLog
	customers CustomerDirectory
	inventory InventoryReservation
	payments  PaymentInitiator
	events    EventPublisher

	callTimeout time.Duration
	retry       retry.Policy
}

func NewCoordinator(
	log *slog.Logger,
	repo OrderRepository,
	sagas SagaLog,
	customers CustomerDirectory,
	inventory InventoryReservation,
	payments PaymentInitiator,
	events EventPublisher,
) *Coordinator {
	return &Coordinator{
		log:         log,
		repo:        repo,
		sagas:       sagas,
		customers:   customers,
		inventory:   inventory,
		payments:    payments,
		events:      events,
		callTimeout: 5 * time.Second,
		retry:       retry.DefaultPolicy,
	}
}

func (c *Coordinator) CreateOrder(ctx context.Context, req CreateOrderRequest) (int64, error) {
	if err := validate(req); err != nil {
		return 0, err
	}

	// Exactly-once effect under request redelivery: a reference that
	// already produced an order short-circuits before any side effect.
	// A cancelled order replays the recorded failure, not a success:
	// its reservation is released and no payment exists.
	if existing, found, err := c.repo.FindByReference(ctx, req.Reference); err != nil {
		return 0, err
	} else if found {
		if existing.Status == domain.StatusCancelled {
			c.log.Info("order creation replayed after compensation", "reference", req.Reference, "order_id", existing.ID)
			return 0, fmt.Errorf("order %s: %w", req.Reference, ErrOrderCancelled)
		}
		c.log.Info("order creation replayed", "reference", req.Reference, "order_id", existing.ID)
		return existing.ID, nil
	}

	state := c.transition(ctx, req.Reference, "", domain.SagaStarted, nil)

	// Step 1: verify the customer. Nothing is held yet, so a failure
	// here aborts without compensation.
	customer, err := c.verifyCustomer(ctx, req.CustomerID)
	if err != nil {
		c.transition(ctx, req.Reference, state, domain.SagaFailed, err)
		if errors.Is(err, ErrCustomerNotFound) {
			return 0, err
		}
		return 0, &StepError{Step: StepVerifyCustomer, Compensated: true, Err: err}
	}
	state = c.transition(ctx, req.Reference, state, domain.SagaCustomerVerified, nil)

	// Step 2: reserve inventory, all lines or none. A rejection holds
	// no stock, so again no compensation is needed.
	reservation, err := c.reserveInventory(ctx, req.Reference, req.Lines)
	if err != nil {
		c.transition(ctx, req.Reference, state, domain.SagaFailed, err)
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			return 0, err
		}
		return 0, &StepError{Step: StepReserveInventory, Compensated: true, Err: err}
	}
	state = c.transition(ctx, req.Reference, state, domain.SagaInventoryReserved, nil)

	// Step 3: persist order + lines as one unit.
	order := domain.NewOrder(req.Reference, req.CustomerID, req.Amount, req.PaymentMethod, req.Lines)
	orderID, err := c.repo.Save(ctx, order)
	if err != nil {
		state = c.transition(ctx, req.Reference, state, domain.SagaCompensating, err)
		compensated := c.releaseReservation(ctx, reservation.ID)
		c.transition(ctx, req.Reference, state, domain.SagaFailed, err)
		return 0, &StepError{Step: StepPersistOrder, Compensated: compensated, Err: err}
	}
	state = c.transition(ctx, req.Reference, state, domain.SagaOrderPersisted, nil)

	// Step 4: initiate payment. On failure the reservation is released
	// and the persisted order cancelled, never deleted.
	err = c.initiatePayment(ctx, PaymentOrder{
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		OrderID:        orderID,
		OrderReference: req.Reference,
		Customer:       customer,
	})
	if err != nil {
		state = c.transition(ctx, req.Reference, state, domain.SagaCompensating, err)
		compensated := c.releaseReservation(ctx, reservation.ID)
		if cancelErr := c.repo.MarkCancelled(detach(ctx), orderID); cancelErr != nil {
			c.log.Error("cancel after payment failure did not apply", "order_id", orderID, "err", cancelErr)
			compensated = false
		}
		c.transition(ctx, req.Reference, state, domain.SagaFailed, err)
		return 0, &StepError{Step: StepInitiatePayment, Compensated: compensated, Err: err}
	}
	state = c.transition(ctx, req.Reference, state, domain.SagaPaymentInitiated, nil)

	// Step 5: publish the confirmation. The order is already committed
	// and paid; a publish failure is logged and left to the channel's
	// redelivery, never surfaced to the caller.
	if err := c.events.PublishOrderConfirmation(ctx, domain.OrderConfirmation{
		OrderReference: req.Reference,
		TotalAmount:    req.Amount,
		PaymentMethod:  req.PaymentMethod,
		Customer:       customer,
		Products:       reservation.Products,
	}); err != nil {
		c.log.Error("order confirmation publish failed", "reference", req.Reference, "err", err)
	}
	c.transition(ctx, req.Reference, state, domain.SagaConfirmed, nil)

	c.log.Info("order confirmed", "reference", req.Reference, "order_id", orderID)
	return orderID, nil
}

func (c *Coordinator) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	return c.repo.FindByID(ctx, id)
}

func (c *Coordinator) FindAll(ctx context.Context) ([]domain.Order, error) {
	return c.repo.FindAll(ctx)
}

func validate(req CreateOrderRequest) error {
	if req.Reference == "" {
		return errors.New("order reference is required")
	}
	if req.CustomerID == "" {
		return errors.New("customer id is required")
	}
	if len(req.Lines) == 0 {
		return errors.New("order requires at least one line")
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return errors.New("line quantity must be positive")
		}
	}
	if req.Amount.Sign() <= 0 {
		return errors.New("order amount must be positive")
	}
	return nil
}

func (c *Coordinator) verifyCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	var customer domain.Customer
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		var err error
		customer, err = c.customers.FindByID(callCtx, customerID)
		return err
	})
	return customer, err
}

func (c *Coordinator) reserveInventory(ctx context.Context, reference string, lines []domain.PurchaseLine) (domain.Reservation, error) {
	var reservation domain.Reservation
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		var err error
		// Keyed by reference, so a retried call lands on the same
		// reservation instead of decrementing twice.
		reservation, err = c.inventory.Reserve(callCtx, reference, lines)
		return err
	})
	return reservation, err
}

func (c *Coordinator) initiatePayment(ctx context.Context, p PaymentOrder) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		return c.payments.Initiate(callCtx, p)
	})
}

// releaseReservation runs compensation detached from the request context
// so a cancelled caller cannot wedge the saga short of a terminal state.
func (c *Coordinator) releaseReservation(ctx context.Context, reservationID string) bool {
	relCtx, cancel := context.WithTimeout(detach(ctx), c.callTimeout)
	defer cancel()
	if err := c.inventory.Release(relCtx, reservationID); err != nil {
		c.log.Error("reservation release failed", "reservation_id", reservationID, "err", err)
		return false
	}
	return true
}

func (c *Coordinator) transition(ctx context.Context, reference string, from, to domain.SagaState, cause error) domain.SagaState {
	if from != "" && !domain.CanTransition(from, to) {
		c.log.Error("invalid saga transition", "reference", reference, "from", from, "to", to)
		return from
	}
	entry := domain.SagaLogEntry{
		Reference: reference,
		State:     to,
		UpdatedAt: time.Now().UTC(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	// The log is an audit trail; a write failure must not abort the
	// attempt itself.
	if err := c.sagas.Append(detach(ctx), entry); err != nil {
		c.log.Error("saga log append failed", "reference", reference, "state", to, "err", err)
	}
	return to
}

func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
