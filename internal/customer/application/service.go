package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Facugl/microservices-ecommerce/internal/customer/domain"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Service struct {
	repo CustomerRepository
}

func NewService(repo CustomerRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, c domain.Customer) (string, error) {
	if c.Email == "" {
		return "", errors.New("customer email is required")
	}
	c.ID = uuid.NewString()
	if err := s.repo.Save(ctx, c); err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return c.ID, nil
}

// Update merges the non-blank fields of in onto the stored record.
func (s *Service) Update(ctx context.Context, in domain.Customer) error {
	stored, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("update customer %s: %w", in.ID, err)
	}
	stored.Merge(in)
	return s.repo.Save(ctx, stored)
}

func (s *Service) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) FindAll(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) ExistsByID(ctx context.Context, id string) (bool, error) {
	return s.repo.ExistsByID(ctx, id)
}

// Delete is unconditional; deleting an absent customer is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
