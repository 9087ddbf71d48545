package application

import (
	"context"

	"github.com/Facugl/microservices-ecommerce/internal/notification/domain"
)

type NotificationRepository interface {
	// Save records the notification; it reports false without error when
	// one already exists for the same type and order reference.
	Save(ctx context.Context, n domain.Notification) (bool, error)
}
