package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Facugl/microservices-ecommerce/internal/payment/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

const EventPaymentNotification = "PaymentNotification"

// Service records payment attempts. It is a boundary recorder: accepting
// a payment means "accepted for processing", settlement happens outside
// this system.
type Service struct {
	repo PaymentRepository
}

func NewService(repo PaymentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, p domain.Payment) (int64, error) {
	if p.OrderReference == "" {
		return 0, errors.New("order reference is required")
	}
	if p.Amount.Sign() <= 0 {
		return 0, errors.New("payment amount must be positive")
	}
	p.CreatedAt = time.Now().UTC()

	event := domain.PaymentNotification{
		OrderReference:    p.OrderReference,
		Amount:            p.Amount,
		PaymentMethod:     p.PaymentMethod,
		CustomerFirstName: p.Customer.FirstName,
		CustomerLastName:  p.Customer.LastName,
		CustomerEmail:     p.Customer.Email,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, err
	}

	headers := map[string]string{"source": "payment-service"}
	return s.repo.SaveWithOutbox(ctx, p, EventPaymentNotification, payload, headers, tracing.Traceparent(ctx))
}

func (s *Service) FindAll(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.FindAll(ctx)
}
