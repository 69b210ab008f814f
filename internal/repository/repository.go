package repository

import (
	"context"
	"time"

	"catalog-sync/internal/model"
)

// ProductUpdate is the write-back applied to a product after
// reconciliation. Price is optional: a nil price refreshes only the
// freshness timestamp.
type ProductUpdate struct {
	// Price, when set, is the new stored price.
	Price *float64

	// LastUpdate is the new freshness timestamp.
	LastUpdate time.Time

	// ExpectedLastUpdate is the freshness timestamp read at selection
	// time. The update only applies when it still matches, so a writer
	// that lost a race with an overlapping run no-ops instead of
	// clobbering newer state.
	ExpectedLastUpdate time.Time
}

// TenantRepository defines the interface for tenant configuration access.
type TenantRepository interface {
	// ListTenantConfigs retrieves every tenant's settings row.
	ListTenantConfigs(ctx context.Context) ([]model.TenantConfig, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// ListStaleProducts retrieves up to limit of a tenant's products,
	// ordered by freshness timestamp ascending (stalest first).
	ListStaleProducts(ctx context.Context, tenantID string, limit int) ([]model.Product, error)

	// UpdateProduct applies a price/timestamp write-back to one product.
	// It reports whether a row was updated; false means the
	// compare-and-set on the freshness timestamp did not match.
	UpdateProduct(ctx context.Context, asin, tenantID string, update ProductUpdate) (bool, error)
}
