package domain

import "time"

// SagaState is the coordinator's position in one order-creation attempt.
// Forward transitions follow the step order; COMPENSATING may be entered
// from any non-terminal state and only FAILED follows it.
type SagaState string

const (
	SagaStarted           SagaState = "STARTED"
	SagaCustomerVerified  SagaState = "CUSTOMER_VERIFIED"
	SagaInventoryReserved SagaState = "INVENTORY_RESERVED"
	SagaOrderPersisted    SagaState = "ORDER_PERSISTED"
	SagaPaymentInitiated  SagaState = "PAYMENT_INITIATED"
	SagaConfirmed         SagaState = "CONFIRMED"
	SagaCompensating      SagaState = "COMPENSATING"
	SagaFailed            SagaState = "FAILED"
)

var validNext = map[SagaState]map[SagaState]bool{
	SagaStarted:           {SagaCustomerVerified: true, SagaCompensating: true, SagaFailed: true},
	SagaCustomerVerified:  {SagaInventoryReserved: true, SagaCompensating: true, SagaFailed: true},
	SagaInventoryReserved: {SagaOrderPersisted: true, SagaCompensating: true},
	SagaOrderPersisted:    {SagaPaymentInitiated: true, SagaCompensating: true},
	SagaPaymentInitiated:  {SagaConfirmed: true, SagaCompensating: true},
	SagaConfirmed:         {},
	SagaCompensating:      {SagaFailed: true},
	SagaFailed:            {},
}

func CanTransition(from, to SagaState) bool {
	return validNext[from][to]
}

// Terminal reports whether the saga has reached a state it never leaves.
func (s SagaState) Terminal() bool {
	return s == SagaConfirmed || s == SagaFailed
}

// SagaLogEntry is one row of the append-only saga log: a point-in-time
// snapshot of an order-creation attempt, keyed by the idempotency
// reference so it can be joined with the order itself.
type SagaLogEntry struct {
	Reference string
	State     SagaState
	Error     string
	UpdatedAt time.Time
}
