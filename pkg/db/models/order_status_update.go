package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/enums"
)

// OrderStatusUpdate is one entry of an order's append-only history. Rows are
// inserted and never updated or deleted while the order exists.
type OrderStatusUpdate struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Message   string            `gorm:"column:message;not null"`
	Location  string            `gorm:"column:location;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
