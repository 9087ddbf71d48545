package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerSnapshot is a denormalized copy of the customer taken at
// payment time. Later customer edits never rewrite payment history.
type CustomerSnapshot struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

type Payment struct {
	ID             int64            `json:"id"`
	OrderID        int64            `json:"orderId"`
	OrderReference string           `json:"orderReference"`
	Amount         decimal.Decimal  `json:"amount"`
	PaymentMethod  string           `json:"paymentMethod"`
	Customer       CustomerSnapshot `json:"customer"`
	CreatedAt      time.Time        `json:"createdAt"`
}
