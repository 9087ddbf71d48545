package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Facugl/microservices-ecommerce/internal/order/application"
	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type PaymentClient struct {
	baseURL string
	hc      *http.Client
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{baseURL: baseURL, hc: newHTTPClient()}
}

type paymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod"`
	OrderID        int64           `json:"orderId"`
	OrderReference string          `json:"orderReference"`
	Customer       domain.Customer `json:"customer"`
}

func (c *PaymentClient) Initiate(ctx context.Context, p application.PaymentOrder) error {
	status, _, err := doJSON(ctx, c.hc, http.MethodPost, c.baseURL+"/api/v1/payments", paymentRequest{
		Amount:         p.Amount,
		PaymentMethod:  p.PaymentMethod,
		OrderID:        p.OrderID,
		OrderReference: p.OrderReference,
		Customer:       p.Customer,
	}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("payment initiation: unexpected status %d", status)
	}
	return nil
}
