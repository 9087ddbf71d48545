package domain

import "time"

type Type string

const (
	TypeOrderConfirmation   Type = "ORDER_CONFIRMATION"
	TypePaymentConfirmation Type = "PAYMENT_CONFIRMATION"
)

// Notification is the record of one delivered message. Uniqueness over
// (type, order reference) is what keeps the consumer idempotent under
// at-least-once redelivery.
type Notification struct {
	ID             int64     `json:"id"`
	Type           Type      `json:"type"`
	OrderReference string    `json:"orderReference"`
	Recipient      string    `json:"recipient"`
	Message        string    `json:"message"`
	SentAt         time.Time `json:"sentAt"`
}
