package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	CustomerID    string          `json:"customerId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	Lines         []OrderLine     `json:"lines"`
}

// OrderLine is owned by its order: persisted and destroyed with it.
// It references the product that existed at line-creation time; later
// product edits do not cascade.
type OrderLine struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// PurchaseLine is one requested (product, quantity) pair of an incoming
// order request.
type PurchaseLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Shortage reports a product the inventory service could not cover.
type Shortage struct {
	ProductID int64 `json:"productId"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// Customer is the slice of the customer record the order saga needs:
// enough to address a payment and a confirmation, snapshotted at order
// time.
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// Reservation is the saga-internal handle over the stock held for one
// order attempt; it only lives long enough to confirm or compensate.
type Reservation struct {
	ID       string
	Products []PurchasedProduct
}

type PurchasedProduct struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func NewOrder(reference, customerID string, amount decimal.Decimal, paymentMethod string, lines []PurchaseLine) Order {
	o := Order{
		Reference:     reference,
		CustomerID:    customerID,
		TotalAmount:   amount,
		PaymentMethod: paymentMethod,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	for _, l := range lines {
		o.Lines = append(o.Lines, OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return o
}
