package application

import (
	"context"

	"github.com/Facugl/microservices-ecommerce/internal/customer/domain"
)

type CustomerRepository interface {
	Save(ctx context.Context, c domain.Customer) error
	FindByID(ctx context.Context, id string) (domain.Customer, error)
	FindAll(ctx context.Context) ([]domain.Customer, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}
