package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalculateEstimatedDelivery(t *testing.T) {
	ordered := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.Equal(t, ordered.AddDate(0, 0, 2), CalculateEstimatedDelivery(ordered, "New York", 5))
	require.Equal(t, ordered.AddDate(0, 0, 2), CalculateEstimatedDelivery(ordered, "  new york ", 5))
	require.Equal(t, ordered.AddDate(0, 0, 7), CalculateEstimatedDelivery(ordered, "Los Angeles", 5))

	// Unknown city uses the configured default.
	require.Equal(t, ordered.AddDate(0, 0, 5), CalculateEstimatedDelivery(ordered, "Nowhereville", 5))
	require.Equal(t, ordered.AddDate(0, 0, 3), CalculateEstimatedDelivery(ordered, "Nowhereville", 3))

	// Non-positive default falls back rather than producing same-day delivery.
	require.Equal(t, ordered.AddDate(0, 0, 5), CalculateEstimatedDelivery(ordered, "", 0))
}

func TestCalculateEstimatedDeliveryDeterministic(t *testing.T) {
	ordered := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first := CalculateEstimatedDelivery(ordered, "Chicago", 5)
	second := CalculateEstimatedDelivery(ordered, "chicago", 5)
	require.Equal(t, first, second)
}
