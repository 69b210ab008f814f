package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/model"
	"catalog-sync/internal/notify"
	"catalog-sync/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBatchSize is the number of stale products selected per tenant
// per run. Selection is stalest first, so repeated runs eventually
// cover the whole catalog.
const DefaultBatchSize = 20

// reconcileService implements ReconcileService.
type reconcileService struct {
	tenantRepo  repository.TenantRepository
	productRepo repository.ProductRepository
	catalog     catalog.Client
	notifier    notify.Notifier
	batchSize   int
	logger      zerolog.Logger
}

// NewReconcileService creates a new batch reconciliation service.
func NewReconcileService(
	tenantRepo repository.TenantRepository,
	productRepo repository.ProductRepository,
	catalogClient catalog.Client,
	notifier notify.Notifier,
	batchSize int,
	logger zerolog.Logger,
) ReconcileService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &reconcileService{
		tenantRepo:  tenantRepo,
		productRepo: productRepo,
		catalog:     catalogClient,
		notifier:    notifier,
		batchSize:   batchSize,
		logger:      logger.With().Str("service", "reconcile").Logger(),
	}
}

// Run reconciles stale products for every configured tenant. Tenants are
// processed sequentially and in isolation: a failure inside one tenant
// is logged and counted, and the run continues with the next tenant.
func (s *reconcileService) Run(ctx context.Context) (*model.ReconcileSummary, error) {
	summary := &model.ReconcileSummary{RunID: uuid.New().String()}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	tenants, err := s.tenantRepo.ListTenantConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant configs: %w", err)
	}

	summary.Tenants = len(tenants)
	logger.Info().Int("tenants", len(tenants)).Msg("starting reconciliation run")

	for _, tenant := range tenants {
		if !tenant.Catalog.Complete() {
			logger.Debug().
				Str("tenant_id", tenant.TenantID).
				Msg("tenant has incomplete catalog credentials, skipping")
			summary.TenantsSkipped++
			continue
		}

		if err := s.reconcileTenant(ctx, logger, tenant, summary); err != nil {
			logger.Error().Err(err).
				Str("tenant_id", tenant.TenantID).
				Msg("tenant reconciliation failed")
			summary.TenantsFailed++
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("updated", summary.Updated).
		Int("out_of_stock", summary.OutOfStock).
		Int("unchanged", summary.Unchanged).
		Int("rotated", summary.Rotated).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("reconciliation run finished")

	return summary, nil
}

// reconcileTenant fetches current prices for one tenant's stale batch
// and applies the per-product write-backs and notifications.
func (s *reconcileService) reconcileTenant(ctx context.Context, logger zerolog.Logger, tenant model.TenantConfig, summary *model.ReconcileSummary) error {
	products, err := s.productRepo.ListStaleProducts(ctx, tenant.TenantID, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to select stale products: %w", err)
	}
	if len(products) == 0 {
		return nil
	}

	prices, covered := s.fetchPrices(ctx, logger, tenant, products)

	for _, product := range products {
		// A product whose fetch call failed outright stays stale and is
		// retried by a later run; no write happens for it. Coverage is
		// tracked by canonical identifier regardless of how the row is
		// stored.
		if !covered[model.NormalizeASIN(product.ASIN)] {
			summary.Skipped++
			continue
		}

		s.reconcileProduct(ctx, logger, tenant, product, prices, summary)
	}

	return nil
}

// fetchPrices retrieves current prices for the batch, chunked to the
// catalog API's per-request item ceiling. It returns the fetched price
// map and the set of identifiers whose fetch call succeeded; a chunk
// that fails upstream leaves its items uncovered rather than failing
// the tenant.
func (s *reconcileService) fetchPrices(ctx context.Context, logger zerolog.Logger, tenant model.TenantConfig, products []model.Product) (map[string]float64, map[string]bool) {
	prices := make(map[string]float64)
	covered := make(map[string]bool, len(products))

	for start := 0; start < len(products); start += catalog.MaxItemsPerRequest {
		end := start + catalog.MaxItemsPerRequest
		if end > len(products) {
			end = len(products)
		}
		chunk := products[start:end]

		asins := make([]string, len(chunk))
		for i, p := range chunk {
			asins[i] = model.NormalizeASIN(p.ASIN)
		}

		fetched, err := s.catalog.GetPrices(ctx, tenant.Catalog, asins)
		if err != nil {
			logger.Error().Err(err).
				Str("tenant_id", tenant.TenantID).
				Int("items", len(asins)).
				Msg("catalog fetch failed, items stay stale")
			continue
		}

		for asin, price := range fetched {
			prices[asin] = price
		}
		for _, asin := range asins {
			covered[asin] = true
		}
	}

	return prices, covered
}

// reconcileProduct classifies one product against the fetched prices and
// applies the write-back. Changed items are notified only after the
// write-back applied, which keeps notifications at-most-once across
// overlapping runs.
func (s *reconcileService) reconcileProduct(ctx context.Context, logger zerolog.Logger, tenant model.TenantConfig, product model.Product, prices map[string]float64, summary *model.ReconcileSummary) {
	delta := classify(product, prices)
	summary.Processed++

	update := repository.ProductUpdate{
		LastUpdate:         time.Now().UTC(),
		ExpectedLastUpdate: product.LastUpdate,
	}
	if delta.Status.Changed() {
		newPrice := delta.NewPrice
		update.Price = &newPrice
	}

	applied, err := s.productRepo.UpdateProduct(ctx, product.ASIN, tenant.TenantID, update)
	if err != nil {
		logger.Error().Err(err).
			Str("tenant_id", tenant.TenantID).
			Str("asin", product.ASIN).
			Msg("product write-back failed")
		summary.Errors++
		return
	}
	if !applied {
		// Lost the compare-and-set to an overlapping run.
		summary.Skipped++
		return
	}

	switch delta.Status {
	case model.DeltaPriceUpdated:
		summary.Updated++
	case model.DeltaOutOfStock:
		summary.OutOfStock++
	case model.DeltaUnchanged:
		summary.Unchanged++
	case model.DeltaRotated:
		summary.Rotated++
	}

	if delta.Status.Changed() {
		logger.Info().
			Str("tenant_id", tenant.TenantID).
			Str("asin", product.ASIN).
			Float64("old_price", delta.OldPrice).
			Float64("new_price", delta.NewPrice).
			Str("status", string(delta.Status)).
			Msg("price change detected")
		s.notifier.NotifyPriceChange(ctx, tenant, delta)
	}
}

// classify compares a product's stored price against the fetched map.
// Prices are compared on their floor: downstream display truncates to
// whole currency units, so sub-unit fluctuation must not notify.
func classify(product model.Product, prices map[string]float64) model.PriceDelta {
	delta := model.PriceDelta{
		ASIN:     model.NormalizeASIN(product.ASIN),
		Title:    product.Title,
		Image:    product.Image,
		Link:     product.AffiliateLink,
		OldPrice: product.Price,
	}

	newPrice, ok := prices[delta.ASIN]
	if !ok {
		// No offer in the response: leave the stored price alone but
		// still rotate the product out of the stale window so one
		// missing-offer item cannot starve the batch.
		delta.NewPrice = product.Price
		delta.Status = model.DeltaRotated
		return delta
	}

	delta.NewPrice = newPrice
	switch {
	case math.Floor(newPrice) == math.Floor(product.Price):
		delta.Status = model.DeltaUnchanged
	case newPrice <= 0:
		delta.Status = model.DeltaOutOfStock
	default:
		delta.Status = model.DeltaPriceUpdated
	}

	return delta
}
