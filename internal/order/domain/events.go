package domain

import "github.com/shopspring/decimal"

// OrderConfirmation is the message published to the order-confirmations
// topic once an order is paid. An independent consumer (notification
// delivery) depends on this shape, so the JSON field names are a stable
// wire contract.
type OrderConfirmation struct {
	OrderReference string             `json:"orderReference"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	PaymentMethod  string             `json:"paymentMethod"`
	Customer       Customer           `json:"customer"`
	Products       []PurchasedProduct `json:"products"`
}
