package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
)

// Repository loads catalog rows for server-side cart pricing.
type Repository interface {
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}
