package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"catalog-sync/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			asin VARCHAR(10) NOT NULL,
			title TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			affiliate_link TEXT NOT NULL DEFAULT '',
			tenant_id VARCHAR(50) NOT NULL,
			last_update TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (asin, tenant_id)
		);

		CREATE INDEX IF NOT EXISTS idx_products_tenant_stale
			ON products(tenant_id, last_update);

		CREATE TABLE IF NOT EXISTS tenant_settings (
			tenant_id VARCHAR(50) PRIMARY KEY,
			amazon_access_key TEXT,
			amazon_secret_key TEXT,
			amazon_partner_tag TEXT,
			tg_bot_token TEXT,
			tg_admin_id TEXT
		);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProduct inserts one product row.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, p model.Product) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (asin, title, price, image, affiliate_link, tenant_id, last_update)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ASIN, p.Title, p.Price, p.Image, p.AffiliateLink, p.TenantID, p.LastUpdate,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", p.ASIN, err)
	}
}

// SeedTenant inserts one tenant settings row.
func SeedTenant(t *testing.T, pool *pgxpool.Pool, tc model.TenantConfig) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO tenant_settings (tenant_id, amazon_access_key, amazon_secret_key, amazon_partner_tag, tg_bot_token, tg_admin_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tc.TenantID, tc.Catalog.AccessKey, tc.Catalog.SecretKey, tc.Catalog.PartnerTag,
		tc.TelegramBotToken, tc.TelegramAdminID,
	)
	if err != nil {
		t.Fatalf("failed to seed tenant %s: %v", tc.TenantID, err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"products", "tenant_settings"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
