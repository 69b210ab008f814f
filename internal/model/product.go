package model

import (
	"regexp"
	"strings"
	"time"
)

// asinPattern matches a canonical catalog item identifier.
var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Product represents one tracked catalog item owned by a tenant.
type Product struct {
	ASIN          string    `json:"asin" db:"asin"`
	Title         string    `json:"title" db:"title"`
	Price         float64   `json:"price" db:"price"`
	Image         string    `json:"image" db:"image"`
	AffiliateLink string    `json:"affiliateLink" db:"affiliate_link"`
	TenantID      string    `json:"tenantId" db:"tenant_id"`
	LastUpdate    time.Time `json:"lastUpdate" db:"last_update"`
}

// NormalizeASIN trims surrounding whitespace and upper-cases an item
// identifier. Identifiers are case-insensitive but stored canonically
// upper-cased.
func NormalizeASIN(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}

// ValidASIN reports whether the given string is a canonical 10-character
// alphanumeric item identifier. Callers are expected to normalize first.
func ValidASIN(asin string) bool {
	return asinPattern.MatchString(asin)
}
