package types

import "strings"

// Address is the structured delivery destination stored on each order.
// Persisted as jsonb via the gorm json serializer.
type Address struct {
	FullName   string  `json:"full_name"`
	Phone      string  `json:"phone"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country"`
}

// Validate reports the first missing required field, empty string when complete.
func (a Address) Validate() string {
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return "full_name"
	case strings.TrimSpace(a.Phone) == "":
		return "phone"
	case strings.TrimSpace(a.Street) == "":
		return "street"
	case strings.TrimSpace(a.City) == "":
		return "city"
	case strings.TrimSpace(a.State) == "":
		return "state"
	case strings.TrimSpace(a.Country) == "":
		return "country"
	}
	return ""
}
