package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
)

func strPtr(s string) *string { return &s }

func sampleProducts() []models.Product {
	base := uuid.New()
	variantParent := uuid.New()
	return []models.Product{
		{
			ID:         base,
			Name:       "Cloud Pillow",
			PriceCents: 4500,
			Active:     true,
		},
		{
			ID:         variantParent,
			Name:       "Haven Hybrid Mattress",
			PriceCents: 89900,
			Active:     true,
			Variants: []models.ProductVariant{
				{ID: uuid.New(), ProductID: variantParent, Size: "Queen", Height: strPtr(`12"`), PriceCents: 109900},
				{ID: uuid.New(), ProductID: variantParent, Size: "King", PriceCents: 129900},
			},
		},
	}
}

func TestPriceLinesBaseAndVariant(t *testing.T) {
	products := sampleProducts()
	mattress := products[1]
	queen := mattress.Variants[0]

	lines, err := PriceLines(products, []LineRequest{
		{ProductID: products[0].ID, Quantity: 2},
		{ProductID: mattress.ID, VariantID: &queen.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.Equal(t, 4500, lines[0].UnitPriceCents)
	require.Equal(t, 9000, lines[0].TotalCents)
	require.Nil(t, lines[0].VariantLabel)

	require.Equal(t, 109900, lines[1].UnitPriceCents)
	require.Equal(t, `Queen / 12"`, *lines[1].VariantLabel)

	require.Equal(t, 118900, Subtotal(lines))
}

func TestPriceLinesFailsClosed(t *testing.T) {
	products := sampleProducts()

	_, err := PriceLines(products, []LineRequest{{ProductID: uuid.New(), Quantity: 1}})
	require.ErrorContains(t, err, "item without a resolved price")

	missingVariant := uuid.New()
	_, err = PriceLines(products, []LineRequest{
		{ProductID: products[1].ID, VariantID: &missingVariant, Quantity: 1},
	})
	require.ErrorContains(t, err, "item without a resolved price")

	_, err = PriceLines(products, []LineRequest{{ProductID: products[0].ID, Quantity: 0}})
	require.ErrorContains(t, err, "non-positive quantity")
}
