package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
)

// PricedLine is a cart entry with its server-resolved unit price.
type PricedLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	VariantLabel   *string
	Quantity       int
	UnitPriceCents int
	TotalCents     int
}

// LineRequest is a cart entry as submitted by the client. Prices are never
// accepted from the client.
type LineRequest struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// PriceLines resolves every requested line against the loaded products,
// failing when any line cannot be priced. Variant prices win over the base
// product price when a variant is selected.
func PriceLines(products []models.Product, lines []LineRequest) ([]PricedLine, error) {
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line for product %s has non-positive quantity", line.ProductID)
		}
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("item without a resolved price: product %s", line.ProductID)
		}

		priced := PricedLine{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		}

		if line.VariantID != nil {
			variant := findVariant(product, *line.VariantID)
			if variant == nil {
				return nil, fmt.Errorf("item without a resolved price: variant %s", *line.VariantID)
			}
			priced.VariantID = &variant.ID
			priced.UnitPriceCents = variant.PriceCents
			label := variantLabel(variant)
			priced.VariantLabel = &label
		}

		if priced.UnitPriceCents <= 0 {
			return nil, fmt.Errorf("item without a resolved price: product %s", line.ProductID)
		}
		priced.TotalCents = priced.UnitPriceCents * priced.Quantity
		out = append(out, priced)
	}
	return out, nil
}

// Subtotal sums the line totals in cents.
func Subtotal(lines []PricedLine) int {
	total := 0
	for _, line := range lines {
		total += line.TotalCents
	}
	return total
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

func variantLabel(variant *models.ProductVariant) string {
	parts := []string{variant.Size}
	if variant.Height != nil && *variant.Height != "" {
		parts = append(parts, *variant.Height)
	}
	return strings.Join(parts, " / ")
}
