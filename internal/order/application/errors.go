package application

import (
	"errors"
	"fmt"

	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrOrderCancelled answers a replayed reference whose earlier
	// attempt was compensated: the order is on record but CANCELLED,
	// so the retry must not be mistaken for a success.
	ErrOrderCancelled = errors.New("order cancelled")
)

// Step names the saga step a failure belongs to.
type Step string

const (
	StepVerifyCustomer   Step = "verify_customer"
	StepReserveInventory Step = "reserve_inventory"
	StepPersistOrder     Step = "persist_order"
	StepInitiatePayment  Step = "initiate_payment"
)

// StepError identifies which saga step failed and whether compensation
// of the preceding steps completed before the error was returned.
type StepError struct {
	Step        Step
	Compensated bool
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("order saga step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// InsufficientStockError is a business rejection: the reservation was
// refused as a whole and no stock is held.
type InsufficientStockError struct {
	Shortages []domain.Shortage
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortages))
}
