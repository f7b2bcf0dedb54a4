package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	number, err := GenerateOrderNumber(now)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-F]{8}$`), number)
}

func TestGenerateOrderNumberUniqueness(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		number, err := GenerateOrderNumber(now)
		require.NoError(t, err)
		require.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
}
