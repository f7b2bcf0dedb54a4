package orders

import (
	"strings"
	"time"
)

// cityLeadDays maps destination cities to delivery lead times in days.
// Unknown cities fall back to the configured default; the estimator always
// returns a date.
var cityLeadDays = map[string]int{
	"new york":      2,
	"brooklyn":      2,
	"queens":        2,
	"jersey city":   2,
	"philadelphia":  3,
	"boston":        3,
	"washington":    3,
	"chicago":       4,
	"atlanta":       4,
	"miami":         5,
	"dallas":        5,
	"houston":       5,
	"denver":        6,
	"phoenix":       6,
	"seattle":       7,
	"san francisco": 7,
	"los angeles":   7,
}

// CalculateEstimatedDelivery returns the delivery estimate for an order
// placed at orderDate destined for city. Deterministic for the same inputs.
func CalculateEstimatedDelivery(orderDate time.Time, city string, defaultLeadDays int) time.Time {
	if defaultLeadDays <= 0 {
		defaultLeadDays = 5
	}
	days := defaultLeadDays
	if lead, ok := cityLeadDays[strings.ToLower(strings.TrimSpace(city))]; ok {
		days = lead
	}
	return orderDate.AddDate(0, 0, days)
}
