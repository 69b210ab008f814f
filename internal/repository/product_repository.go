package repository

import (
	"context"
	"fmt"

	"catalog-sync/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// ListStaleProducts retrieves up to limit of a tenant's products,
// stalest first.
func (r *productRepository) ListStaleProducts(ctx context.Context, tenantID string, limit int) ([]model.Product, error) {
	query := `
		SELECT asin, title, price, image, affiliate_link, tenant_id, last_update
		FROM products
		WHERE tenant_id = $1
		ORDER BY last_update ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		r.logger.Error().Err(err).
			Str("tenant_id", tenantID).
			Int("limit", limit).
			Msg("failed to query stale products")
		return nil, fmt.Errorf("failed to query stale products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		err := rows.Scan(&p.ASIN, &p.Title, &p.Price, &p.Image, &p.AffiliateLink, &p.TenantID, &p.LastUpdate)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// UpdateProduct applies a price/timestamp write-back guarded by a
// compare-and-set on the freshness timestamp.
func (r *productRepository) UpdateProduct(ctx context.Context, asin, tenantID string, update ProductUpdate) (bool, error) {
	query := `
		UPDATE products
		SET price = COALESCE($1, price), last_update = $2
		WHERE asin = $3 AND tenant_id = $4 AND last_update = $5
	`

	tag, err := r.pool.Exec(ctx, query,
		update.Price, update.LastUpdate, asin, tenantID, update.ExpectedLastUpdate)
	if err != nil {
		r.logger.Error().Err(err).
			Str("asin", asin).
			Str("tenant_id", tenantID).
			Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("asin", asin).
			Str("tenant_id", tenantID).
			Msg("product write-back skipped, freshness timestamp moved")
		return false, nil
	}

	return true, nil
}
