package repository

import (
	"context"
	"fmt"

	"catalog-sync/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// tenantRepository implements the TenantRepository interface using PostgreSQL.
type tenantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTenantRepository creates a new PostgreSQL-backed tenant repository.
func NewTenantRepository(pool *pgxpool.Pool, logger zerolog.Logger) TenantRepository {
	return &tenantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "tenant").Logger(),
	}
}

// ListTenantConfigs retrieves every tenant's settings row. Credential
// fields come back as stored; callers trim and validate them.
func (r *tenantRepository) ListTenantConfigs(ctx context.Context) ([]model.TenantConfig, error) {
	query := `
		SELECT tenant_id,
		       COALESCE(amazon_access_key, ''),
		       COALESCE(amazon_secret_key, ''),
		       COALESCE(amazon_partner_tag, ''),
		       COALESCE(tg_bot_token, ''),
		       COALESCE(tg_admin_id, '')
		FROM tenant_settings
		ORDER BY tenant_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query tenant settings")
		return nil, fmt.Errorf("failed to query tenant settings: %w", err)
	}
	defer rows.Close()

	var tenants []model.TenantConfig
	for rows.Next() {
		var t model.TenantConfig
		err := rows.Scan(
			&t.TenantID,
			&t.Catalog.AccessKey,
			&t.Catalog.SecretKey,
			&t.Catalog.PartnerTag,
			&t.TelegramBotToken,
			&t.TelegramAdminID,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan tenant settings row")
			return nil, fmt.Errorf("failed to scan tenant settings: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating tenant settings rows")
		return nil, fmt.Errorf("error iterating tenant settings: %w", err)
	}

	return tenants, nil
}
