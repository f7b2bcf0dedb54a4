package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderNumberPrefix = "ORD"

// GenerateOrderNumber produces a human-readable order number safe to call
// concurrently without coordination. Uniqueness comes from millisecond time
// plus four random bytes; the database unique index backstops the negligible
// collision window.
func GenerateOrderNumber(now time.Time) (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generating order number entropy: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, stamp, strings.ToUpper(hex.EncodeToString(random))), nil
}
