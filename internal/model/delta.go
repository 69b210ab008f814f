package model

// DeltaStatus classifies the outcome of comparing a stored price against
// a freshly fetched one.
type DeltaStatus string

const (
	// DeltaUnchanged means the fetched price floors to the same whole
	// currency unit as the stored price.
	DeltaUnchanged DeltaStatus = "unchanged"

	// DeltaRotated means the fetched mapping carried no offer for the
	// item; only the freshness timestamp is refreshed so the item
	// rotates out of the stale-first selection window.
	DeltaRotated DeltaStatus = "rotated"

	// DeltaPriceUpdated means the price changed to a positive value.
	DeltaPriceUpdated DeltaStatus = "price-updated"

	// DeltaOutOfStock means the price changed to zero or below.
	DeltaOutOfStock DeltaStatus = "out-of-stock"
)

// Changed reports whether the delta carries a price change that must be
// written back and notified.
func (s DeltaStatus) Changed() bool {
	return s == DeltaPriceUpdated || s == DeltaOutOfStock
}

// PriceDelta is the result of reconciling one product. It is consumed by
// the notification dispatcher and the write-back step; it is never
// persisted on its own.
type PriceDelta struct {
	ASIN     string
	Title    string
	Image    string
	Link     string
	OldPrice float64
	NewPrice float64
	Status   DeltaStatus
}
