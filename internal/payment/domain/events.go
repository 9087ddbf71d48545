package domain

import "github.com/shopspring/decimal"

// PaymentNotification announces an accepted payment to the notification
// service. JSON field names are a wire contract.
type PaymentNotification struct {
	OrderReference    string          `json:"orderReference"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     string          `json:"paymentMethod"`
	CustomerFirstName string          `json:"customerFirstname"`
	CustomerLastName  string          `json:"customerLastname"`
	CustomerEmail     string          `json:"customerEmail"`
}
