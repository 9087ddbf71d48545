package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"availableQuantity"`
}

// PurchaseItem is one requested line of a reservation batch.
type PurchaseItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// PurchasedProduct is what the caller gets back per reserved line: the
// product details captured at reservation time.
type PurchasedProduct struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "RESERVED"
	ReservationReleased ReservationStatus = "RELEASED"
)

// Reservation groups the product holds taken for a single order attempt.
// It exists so compensation can release the whole batch by one id.
type Reservation struct {
	ID        string            `json:"id"`
	Reference string            `json:"reference"`
	Status    ReservationStatus `json:"status"`
	Products  []PurchasedProduct `json:"products"`
}

// Shortage names a product whose available quantity could not cover the
// requested amount.
type Shortage struct {
	ProductID int64 `json:"productId"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}
