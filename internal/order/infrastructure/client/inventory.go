package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Facugl/microservices-ecommerce/internal/order/application"
	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type InventoryClient struct {
	baseURL string
	hc      *http.Client
}

func NewInventoryClient(baseURL string) *InventoryClient {
	return &InventoryClient{baseURL: baseURL, hc: newHTTPClient()}
}

type reserveRequest struct {
	Reference string                `json:"reference"`
	Items     []domain.PurchaseLine `json:"items"`
}

type reserveResponse struct {
	ID       string                    `json:"id"`
	Products []domain.PurchasedProduct `json:"products"`
}

type shortageResponse struct {
	Shortages []domain.Shortage `json:"shortages"`
}

func (c *InventoryClient) Reserve(ctx context.Context, reference string, lines []domain.PurchaseLine) (domain.Reservation, error) {
	var res reserveResponse
	status, body, err := doJSON(ctx, c.hc, http.MethodPost, c.baseURL+"/api/v1/products/purchase",
		reserveRequest{Reference: reference, Items: lines}, &res)
	if err != nil {
		return domain.Reservation{}, err
	}
	switch status {
	case http.StatusOK:
		return domain.Reservation{ID: res.ID, Products: res.Products}, nil
	case http.StatusConflict:
		var rejected shortageResponse
		_ = json.Unmarshal(body, &rejected)
		return domain.Reservation{}, &application.InsufficientStockError{Shortages: rejected.Shortages}
	default:
		return domain.Reservation{}, fmt.Errorf("inventory reserve: unexpected status %d", status)
	}
}

func (c *InventoryClient) Release(ctx context.Context, reservationID string) error {
	status, _, err := doJSON(ctx, c.hc, http.MethodPost,
		fmt.Sprintf("%s/api/v1/products/reservations/%s/release", c.baseURL, reservationID), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		return fmt.Errorf("inventory release: unexpected status %d", status)
	}
	return nil
}
