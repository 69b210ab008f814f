package service

import (
	"context"

	"catalog-sync/internal/model"
)

// ItemService defines the single-item signing and lookup operation.
type ItemService interface {
	// Lookup fetches the raw catalog response for one item identifier
	// using the caller-supplied credentials.
	Lookup(ctx context.Context, asin string, creds model.Credentials) ([]byte, error)
}

// ReconcileService defines the batch price reconciliation operation.
type ReconcileService interface {
	// Run reconciles stale products for every configured tenant and
	// returns a summary of the work performed.
	Run(ctx context.Context) (*model.ReconcileSummary, error)
}
