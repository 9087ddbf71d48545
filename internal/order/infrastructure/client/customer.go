package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Facugl/microservices-ecommerce/internal/order/application"
	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type CustomerClient struct {
	baseURL string
	hc      *http.Client
}

func NewCustomerClient(baseURL string) *CustomerClient {
	return &CustomerClient{baseURL: baseURL, hc: newHTTPClient()}
}

func (c *CustomerClient) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	var customer domain.Customer
	status, _, err := doJSON(ctx, c.hc, http.MethodGet, fmt.Sprintf("%s/api/v1/customers/%s", c.baseURL, id), nil, &customer)
	if err != nil {
		return domain.Customer{}, err
	}
	switch {
	case status == http.StatusNotFound:
		return domain.Customer{}, application.ErrCustomerNotFound
	case status != http.StatusOK:
		return domain.Customer{}, fmt.Errorf("customer lookup: unexpected status %d", status)
	}
	return customer, nil
}
