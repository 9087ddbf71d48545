package application

import (
	"context"

	"github.com/Facugl/microservices-ecommerce/internal/payment/domain"
)

type PaymentRepository interface {
	// SaveWithOutbox persists the payment and its notification event in
	// one transaction and returns the payment id.
	SaveWithOutbox(ctx context.Context, p domain.Payment, eventType string, payload []byte, headers map[string]string, traceparent string) (int64, error)
	FindAll(ctx context.Context) ([]domain.Payment, error)
}
