package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Facugl/microservices-ecommerce/internal/notification/domain"
	orderdomain "github.com/Facugl/microservices-ecommerce/internal/order/domain"
	paymentdomain "github.com/Facugl/microservices-ecommerce/internal/payment/domain"
)

// Service turns consumed events into notification records. Both handlers
// are idempotent on the order reference: redelivered events produce no
// second notification.
type Service struct {
	log  *slog.Logger
	repo NotificationRepository
}

func NewService(log *slog.Logger, repo NotificationRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) HandleOrderConfirmation(ctx context.Context, oc orderdomain.OrderConfirmation) error {
	n := domain.Notification{
		Type:           domain.TypeOrderConfirmation,
		OrderReference: oc.OrderReference,
		Recipient:      oc.Customer.Email,
		Message: fmt.Sprintf("Your order %s for %s has been confirmed.",
			oc.OrderReference, oc.TotalAmount.StringFixed(2)),
		SentAt: time.Now().UTC(),
	}
	inserted, err := s.repo.Save(ctx, n)
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Info("duplicate order confirmation skipped", "order_reference", oc.OrderReference)
		return nil
	}
	s.log.Info("order confirmation sent", "order_reference", oc.OrderReference, "recipient", n.Recipient)
	return nil
}

func (s *Service) HandlePaymentNotification(ctx context.Context, pn paymentdomain.PaymentNotification) error {
	n := domain.Notification{
		Type:           domain.TypePaymentConfirmation,
		OrderReference: pn.OrderReference,
		Recipient:      pn.CustomerEmail,
		Message: fmt.Sprintf("Payment of %s for order %s was accepted.",
			pn.Amount.StringFixed(2), pn.OrderReference),
		SentAt: time.Now().UTC(),
	}
	inserted, err := s.repo.Save(ctx, n)
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Info("duplicate payment notification skipped", "order_reference", pn.OrderReference)
		return nil
	}
	s.log.Info("payment notification sent", "order_reference", pn.OrderReference, "recipient", n.Recipient)
	return nil
}
