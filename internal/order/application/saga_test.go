package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/logging"
	"github.com/Facugl/microservices-ecommerce/pkg/retry"
)

type fakeOrders struct {
	byRef     map[string]domain.Order
	nextID    int64
	saveErr   error
	cancelled []int64
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byRef: make(map[string]domain.Order)}
}

func (f *fakeOrders) Save(_ context.Context, o domain.Order) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.nextID++
	o.ID = f.nextID
	f.byRef[o.Reference] = o
	return o.ID, nil
}

func (f *fakeOrders) FindByID(_ context.Context, id int64) (domain.Order, error) {
	for _, o := range f.byRef {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

func (f *fakeOrders) FindByReference(_ context.Context, reference string) (domain.Order, bool, error) {
	o, ok := f.byRef[reference]
	return o, ok, nil
}

func (f *fakeOrders) FindAll(_ context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(f.byRef))
	for _, o := range f.byRef {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) MarkCancelled(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	for ref, o := range f.byRef {
		if o.ID == id {
			o.Status = domain.StatusCancelled
			f.byRef[ref] = o
		}
	}
	return nil
}

type recordLog struct {
	entries []domain.SagaLogEntry
}

func (l *recordLog) Append(_ context.Context, entry domain.SagaLogEntry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *recordLog) last() domain.SagaState {
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1].State
}

type fakeCustomers struct {
	byID     map[string]domain.Customer
	failures int
	calls    int
}

func (f *fakeCustomers) FindByID(_ context.Context, id string) (domain.Customer, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return domain.Customer{}, retry.MarkTransient(errors.New("connection refused"))
	}
	c, ok := f.byID[id]
	if !ok {
		return domain.Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

type fakeInventory struct {
	stock        map[int64]int
	reservations map[string]domain.Reservation
	heldLines    map[string][]domain.PurchaseLine
	released     map[string]bool
	releaseErr   error
	reserveCalls int
}

func newFakeInventory(stock map[int64]int) *fakeInventory {
	return &fakeInventory{
		stock:        stock,
		reservations: make(map[string]domain.Reservation),
		heldLines:    make(map[string][]domain.PurchaseLine),
		released:     make(map[string]bool),
	}
}

func (f *fakeInventory) Reserve(_ context.Context, reference string, lines []domain.PurchaseLine) (domain.Reservation, error) {
	f.reserveCalls++
	if r, ok := f.reservations[reference]; ok {
		return r, nil
	}
	var shortages []domain.Shortage
	for _, l := range lines {
		if f.stock[l.ProductID] < l.Quantity {
			shortages = append(shortages, domain.Shortage{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: f.stock[l.ProductID],
			})
		}
	}
	if len(shortages) > 0 {
		return domain.Reservation{}, &InsufficientStockError{Shortages: shortages}
	}
	r := domain.Reservation{ID: "res-" + reference}
	for _, l := range lines {
		f.stock[l.ProductID] -= l.Quantity
		r.Products = append(r.Products, domain.PurchasedProduct{
			ProductID: l.ProductID,
			Price:     decimal.NewFromInt(10),
			Quantity:  l.Quantity,
		})
	}
	f.reservations[reference] = r
	f.heldLines[reference] = lines
	return r, nil
}

func (f *fakeInventory) Release(_ context.Context, reservationID string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	if f.released[reservationID] {
		return nil
	}
	for ref, r := range f.reservations {
		if r.ID != reservationID {
			continue
		}
		for _, l := range f.heldLines[ref] {
			f.stock[l.ProductID] += l.Quantity
		}
	}
	f.released[reservationID] = true
	return nil
}

type fakePayments struct {
	err   error
	calls []PaymentOrder
}

func (f *fakePayments) Initiate(_ context.Context, p PaymentOrder) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, p)
	return nil
}

type fakePublisher struct {
	err    error
	events []domain.OrderConfirmation
}

func (f *fakePublisher) PublishOrderConfirmation(_ context.Context, oc domain.OrderConfirmation) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, oc)
	return nil
}

type sagaFixture struct {
	orders    *fakeOrders
	sagas     *recordLog
	customers *fakeCustomers
	inventory *fakeInventory
	payments  *fakePayments
	events    *fakePublisher
	coord     *Coordinator
}

func newSagaFixture(stock map[int64]int) *sagaFixture {
	f := &sagaFixture{
		orders: newFakeOrders(),
		sagas:  &recordLog{},
		customers: &fakeCustomers{byID: map[string]domain.Customer{
			"cust-1": {ID: "cust-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		}},
		inventory: newFakeInventory(stock),
		payments:  &fakePayments{},
		events:    &fakePublisher{},
	}
	f.coord = NewCoordinator(logging.New("order-service-test"),
		f.orders, f.sagas, f.customers, f.inventory, f.payments, f.events)
	return f
}

func request(reference string) CreateOrderRequest {
	return CreateOrderRequest{
		Reference:     reference,
		CustomerID:    "cust-1",
		Amount:        decimal.NewFromInt(30),
		PaymentMethod: "CREDIT_CARD",
		Lines:         []domain.PurchaseLine{{ProductID: 1, Quantity: 3}},
	}
}

func TestCreateOrder_Confirms(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})

	id, err := f.coord.CreateOrder(context.Background(), request("ord-1"))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	assert.Equal(t, 2, f.inventory.stock[1], "reserved quantity must be decremented exactly once")

	require.Len(t, f.payments.calls, 1)
	p := f.payments.calls[0]
	assert.Equal(t, "ord-1", p.OrderReference)
	assert.Equal(t, "Ada", p.Customer.FirstName)
	assert.Equal(t, "ada@example.com", p.Customer.Email)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "ord-1", f.events.events[0].OrderReference)

	assert.Equal(t, domain.SagaConfirmed, f.sagas.last())
}

func TestCreateOrder_InsufficientStockHoldsNothing(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 2})

	_, err := f.coord.CreateOrder(context.Background(), request("ord-2"))
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, int64(1), insufficient.Shortages[0].ProductID)
	assert.Equal(t, 3, insufficient.Shortages[0].Requested)
	assert.Equal(t, 2, insufficient.Shortages[0].Available)

	assert.Equal(t, 2, f.inventory.stock[1], "a rejected reservation must leave stock unchanged")
	assert.Empty(t, f.orders.byRef)
	assert.Empty(t, f.payments.calls)
	assert.Equal(t, domain.SagaFailed, f.sagas.last())
}

func TestCreateOrder_SameReferenceReplays(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})

	first, err := f.coord.CreateOrder(context.Background(), request("ord-3"))
	require.NoError(t, err)

	second, err := f.coord.CreateOrder(context.Background(), request("ord-3"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.orders.byRef, 1)
	assert.Equal(t, 2, f.inventory.stock[1], "replay must not decrement stock a second time")
	assert.Len(t, f.payments.calls, 1, "replay must not initiate a second payment")
}

func TestCreateOrder_ReplayAfterCompensationIsNotSuccess(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.payments.err = errors.New("payment processor unavailable")

	_, err := f.coord.CreateOrder(context.Background(), request("ord-dup"))
	require.Error(t, err)

	// The processor recovers, the caller retries the same reference.
	f.payments.err = nil
	id, err := f.coord.CreateOrder(context.Background(), request("ord-dup"))

	require.ErrorIs(t, err, ErrOrderCancelled, "a cancelled order must not replay as a success")
	assert.Zero(t, id)
	assert.Empty(t, f.payments.calls, "the retry must not initiate a payment against the dead order")
	assert.Equal(t, 5, f.inventory.stock[1], "the retry must not take a new hold")
	assert.Len(t, f.orders.byRef, 1)
	assert.Equal(t, domain.StatusCancelled, f.orders.byRef["ord-dup"].Status)
}

func TestCreateOrder_UnknownCustomerAborts(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})

	req := request("ord-4")
	req.CustomerID = "nobody"
	_, err := f.coord.CreateOrder(context.Background(), req)

	require.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Zero(t, f.inventory.reserveCalls, "no reservation may be attempted for an unknown customer")
	assert.Empty(t, f.orders.byRef)
	assert.Equal(t, domain.SagaFailed, f.sagas.last())
}

func TestCreateOrder_TransientCustomerLookupRetries(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.customers.failures = 2

	_, err := f.coord.CreateOrder(context.Background(), request("ord-5"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.customers.calls)
}

func TestCreateOrder_PaymentFailureCompensates(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.payments.err = errors.New("payment processor unavailable")

	_, err := f.coord.CreateOrder(context.Background(), request("ord-6"))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepInitiatePayment, stepErr.Step)
	assert.True(t, stepErr.Compensated)

	assert.Equal(t, 5, f.inventory.stock[1], "compensation must return the reserved stock")
	assert.True(t, f.inventory.released["res-ord-6"])

	o, ok := f.orders.byRef["ord-6"]
	require.True(t, ok, "the failed order stays on record")
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, domain.SagaFailed, f.sagas.last())
}

func TestCreateOrder_PersistFailureReleasesReservation(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.orders.saveErr = errors.New("deadlock detected")

	_, err := f.coord.CreateOrder(context.Background(), request("ord-7"))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepPersistOrder, stepErr.Step)
	assert.True(t, stepErr.Compensated)
	assert.Equal(t, 5, f.inventory.stock[1])
	assert.Empty(t, f.payments.calls)
}

func TestCreateOrder_ReleaseFailureReportedUncompensated(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.orders.saveErr = errors.New("disk full")
	f.inventory.releaseErr = errors.New("inventory unreachable")

	_, err := f.coord.CreateOrder(context.Background(), request("ord-8"))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.False(t, stepErr.Compensated)
}

func TestCreateOrder_PublishFailureStillConfirms(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})
	f.events.err = errors.New("broker down")

	id, err := f.coord.CreateOrder(context.Background(), request("ord-9"))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))
	assert.Equal(t, domain.SagaConfirmed, f.sagas.last())
}

func TestCreateOrder_RejectsInvalidRequests(t *testing.T) {
	f := newSagaFixture(map[int64]int{1: 5})

	cases := map[string]func(*CreateOrderRequest){
		"missing reference":     func(r *CreateOrderRequest) { r.Reference = "" },
		"missing customer":      func(r *CreateOrderRequest) { r.CustomerID = "" },
		"no lines":              func(r *CreateOrderRequest) { r.Lines = nil },
		"non-positive quantity": func(r *CreateOrderRequest) { r.Lines[0].Quantity = 0 },
		"non-positive amount":   func(r *CreateOrderRequest) { r.Amount = decimal.Zero },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := request(fmt.Sprintf("ord-%s", name))
			mutate(&req)
			_, err := f.coord.CreateOrder(context.Background(), req)
			require.Error(t, err)
			assert.Zero(t, f.inventory.reserveCalls)
			assert.Empty(t, f.orders.byRef)
		})
	}
}
