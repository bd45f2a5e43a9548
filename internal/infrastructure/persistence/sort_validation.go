package persistence

import "strings"

// sortColumns whitelists the columns a listing may be ordered by. Caller
// input never reaches the ORDER BY clause unless it names one of them.
type sortColumns struct {
	allowed  map[string]bool
	fallback string
}

// transactionSort orders transaction listings, newest payment first by default
var transactionSort = sortColumns{
	allowed: map[string]bool{
		"created_at": true,
		"updated_at": true,
		"paid_at":    true,
		"amount":     true,
		"status":     true,
		"method":     true,
	},
	fallback: "paid_at",
}

// column returns field when whitelisted and the fallback otherwise
func (s sortColumns) column(field string) string {
	if field = strings.TrimSpace(field); s.allowed[field] {
		return field
	}
	return s.fallback
}

// direction normalizes dir to ASC or DESC, defaulting to DESC
func direction(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}
