package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	// UpdateStatusIf applies the updates only while the order is still in one
	// of the expected statuses, reporting whether a row matched.
	UpdateStatusIf(ctx context.Context, orderID uuid.UUID, expected []enums.OrderStatus, updates map[string]any) (bool, error)
	AppendStatusUpdate(ctx context.Context, update *models.OrderStatusUpdate) error
	// DeleteIfNotInStatuses removes the order unless it sits in a protected
	// status, reporting whether a row was deleted.
	DeleteIfNotInStatuses(ctx context.Context, orderID uuid.UUID, protected []enums.OrderStatus) (bool, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
