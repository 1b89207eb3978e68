package customers

import (
	"strings"
	"time"
)

// Customer is a bill-to party. Documents embed a snapshot of it; the stored
// record is only a convenience for re-use and search.
type Customer struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name" validate:"notblank"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	NameKey   string    `json:"nameKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NameKey is the case-insensitive identity used for de-duplication.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c Customer) matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Email), q) ||
		strings.Contains(c.Phone, q)
}
