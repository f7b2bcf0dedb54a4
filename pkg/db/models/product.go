package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Pricing lives here (and on variants) so the
// order assembler can re-price carts server-side.
type Product struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string           `gorm:"column:name;not null"`
	Slug       string           `gorm:"column:slug;not null;uniqueIndex"`
	Category   string           `gorm:"column:category;not null"`
	PriceCents int              `gorm:"column:price_cents;not null"`
	Active     bool             `gorm:"column:active;not null;default:true"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a size/height combination carrying its own price,
// selectable at cart time.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Size       string    `gorm:"column:size;not null"`
	Height     *string   `gorm:"column:height"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
