package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-sync/internal/model"
	"catalog-sync/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTenantRepository is a mock implementation of TenantRepository.
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) ListTenantConfigs(ctx context.Context) ([]model.TenantConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TenantConfig), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListStaleProducts(ctx context.Context, tenantID string, limit int) ([]model.Product, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, asin, tenantID string, update repository.ProductUpdate) (bool, error) {
	args := m.Called(ctx, asin, tenantID, update)
	return args.Bool(0), args.Error(1)
}

// MockCatalogClient is a mock implementation of catalog.Client.
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) GetPrices(ctx context.Context, creds model.Credentials, asins []string) (map[string]float64, error) {
	args := m.Called(ctx, creds, asins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockCatalogClient) GetItemRaw(ctx context.Context, creds model.Credentials, asin string) ([]byte, error) {
	args := m.Called(ctx, creds, asin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPriceChange(ctx context.Context, tenant model.TenantConfig, delta model.PriceDelta) {
	m.Called(ctx, tenant, delta)
}

func completeTenant(id string) model.TenantConfig {
	return model.TenantConfig{
		TenantID: id,
		Catalog: model.Credentials{
			AccessKey:  "access-key",
			SecretKey:  "secret-key",
			PartnerTag: "partner-21",
		},
		TelegramBotToken: "bot-token",
		TelegramAdminID:  "12345",
	}
}

func staleProduct(asin string, price float64, lastUpdate time.Time) model.Product {
	return model.Product{
		ASIN:          asin,
		Title:         "Product " + asin,
		Price:         price,
		Image:         "https://img.example.com/" + asin + ".jpg",
		AffiliateLink: "https://tinyurl.com/" + asin,
		TenantID:      "tenant-1",
		LastUpdate:    lastUpdate,
	}
}

func TestClassify(t *testing.T) {
	base := staleProduct("B0XXXXXXXX", 100.9, time.Now())

	tests := []struct {
		name           string
		storedPrice    float64
		prices         map[string]float64
		expectedStatus model.DeltaStatus
		expectedNew    float64
	}{
		{
			name:           "Sub-unit fluctuation is unchanged",
			storedPrice:    100.9,
			prices:         map[string]float64{"B0XXXXXXXX": 100.1},
			expectedStatus: model.DeltaUnchanged,
			expectedNew:    100.1,
		},
		{
			name:           "Whole-unit drop is price-updated",
			storedPrice:    100,
			prices:         map[string]float64{"B0XXXXXXXX": 95},
			expectedStatus: model.DeltaPriceUpdated,
			expectedNew:    95,
		},
		{
			name:           "Zero price is out-of-stock",
			storedPrice:    100,
			prices:         map[string]float64{"B0XXXXXXXX": 0},
			expectedStatus: model.DeltaOutOfStock,
			expectedNew:    0,
		},
		{
			name:           "Zero fetched against zero stored is unchanged",
			storedPrice:    0,
			prices:         map[string]float64{"B0XXXXXXXX": 0.4},
			expectedStatus: model.DeltaUnchanged,
			expectedNew:    0.4,
		},
		{
			name:           "Missing offer rotates without touching the price",
			storedPrice:    100,
			prices:         map[string]float64{},
			expectedStatus: model.DeltaRotated,
			expectedNew:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := base
			product.Price = tt.storedPrice

			delta := classify(product, tt.prices)

			assert.Equal(t, tt.expectedStatus, delta.Status)
			assert.Equal(t, tt.storedPrice, delta.OldPrice)
			assert.Equal(t, tt.expectedNew, delta.NewPrice)
		})
	}
}

func TestClassify_NormalizesIdentifier(t *testing.T) {
	product := staleProduct(" b0xxxxxxxx ", 100, time.Now())

	delta := classify(product, map[string]float64{"B0XXXXXXXX": 95})

	assert.Equal(t, "B0XXXXXXXX", delta.ASIN)
	assert.Equal(t, model.DeltaPriceUpdated, delta.Status)
}

func TestReconcileService_Run_EndToEnd(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	selectedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	product := staleProduct("B0XXXXXXXX", 250, selectedAt)

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return([]model.Product{product}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0XXXXXXXX"}).
		Return(map[string]float64{"B0XXXXXXXX": 230}, nil)
	productRepo.On("UpdateProduct", ctx, "B0XXXXXXXX", "tenant-1",
		mock.MatchedBy(func(u repository.ProductUpdate) bool {
			return u.Price != nil && *u.Price == 230 && u.ExpectedLastUpdate.Equal(selectedAt)
		})).Return(true, nil)
	notifier.On("NotifyPriceChange", ctx, tenant,
		mock.MatchedBy(func(d model.PriceDelta) bool {
			return d.ASIN == "B0XXXXXXXX" && d.OldPrice == 250 && d.NewPrice == 230 &&
				d.Status == model.DeltaPriceUpdated
		})).Return()

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Tenants)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Unchanged)
	assert.NotEmpty(t, summary.RunID)

	notifier.AssertNumberOfCalls(t, "NotifyPriceChange", 1)
	productRepo.AssertExpectations(t)
}

func TestReconcileService_Run_MissingOfferRotates(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	product := staleProduct("B0XXXXXXXX", 250, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return([]model.Product{product}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0XXXXXXXX"}).
		Return(map[string]float64{}, nil)

	// Timestamp refresh only: price stays untouched.
	productRepo.On("UpdateProduct", ctx, "B0XXXXXXXX", "tenant-1",
		mock.MatchedBy(func(u repository.ProductUpdate) bool {
			return u.Price == nil && u.LastUpdate.After(product.LastUpdate)
		})).Return(true, nil)

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rotated)
	assert.Equal(t, 0, summary.Updated)
	notifier.AssertNotCalled(t, "NotifyPriceChange", mock.Anything, mock.Anything, mock.Anything)
	productRepo.AssertExpectations(t)
}

func TestReconcileService_Run_NonCanonicalStoredIdentifier(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	selectedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Stored lowercase; the fetch and the classification both run on the
	// canonical upper-cased form, the write-back on the stored form.
	product := staleProduct("b0xxxxxxxx", 250, selectedAt)

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return([]model.Product{product}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0XXXXXXXX"}).
		Return(map[string]float64{"B0XXXXXXXX": 230}, nil)
	productRepo.On("UpdateProduct", ctx, "b0xxxxxxxx", "tenant-1",
		mock.MatchedBy(func(u repository.ProductUpdate) bool {
			return u.Price != nil && *u.Price == 230 && u.ExpectedLastUpdate.Equal(selectedAt)
		})).Return(true, nil)
	notifier.On("NotifyPriceChange", ctx, tenant, mock.Anything).Return()

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Skipped)
	productRepo.AssertExpectations(t)
}

func TestReconcileService_Run_SkipsIncompleteCredentials(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	incomplete := model.TenantConfig{TenantID: "tenant-1", Catalog: model.Credentials{AccessKey: "only-access"}}
	blank := model.TenantConfig{TenantID: "tenant-2", Catalog: model.Credentials{AccessKey: "  ", SecretKey: "s", PartnerTag: "p"}}

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{incomplete, blank}, nil)

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TenantsSkipped)
	assert.Equal(t, 0, summary.Processed)
	productRepo.AssertNotCalled(t, "ListStaleProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileService_Run_TenantFailureIsolated(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	broken := completeTenant("tenant-broken")
	healthy := completeTenant("tenant-healthy")

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{broken, healthy}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-broken", 20).
		Return(nil, errors.New("connection reset"))
	productRepo.On("ListStaleProducts", ctx, "tenant-healthy", 20).
		Return([]model.Product{}, nil)

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.TenantsFailed)
	productRepo.AssertCalled(t, "ListStaleProducts", ctx, "tenant-healthy", 20)
}

func TestReconcileService_Run_UpstreamFailureLeavesItemsStale(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	product := staleProduct("B0XXXXXXXX", 250, time.Now())

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return([]model.Product{product}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0XXXXXXXX"}).
		Return(nil, errors.New("upstream down"))

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.TenantsFailed)
	productRepo.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileService_Run_LostRaceSuppressesNotification(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	product := staleProduct("B0XXXXXXXX", 250, time.Now())

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return([]model.Product{product}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0XXXXXXXX"}).
		Return(map[string]float64{"B0XXXXXXXX": 230}, nil)

	// An overlapping run already moved the freshness timestamp.
	productRepo.On("UpdateProduct", ctx, "B0XXXXXXXX", "tenant-1", mock.Anything).Return(false, nil)

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Updated)
	notifier.AssertNotCalled(t, "NotifyPriceChange", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileService_Run_WriteFailureContinues(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first := staleProduct("B0AAAAAAA1", 100, ts)
	second := staleProduct("B0AAAAAAA2", 200, ts.Add(time.Hour))

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).
		Return([]model.Product{first, second}, nil)
	catalogClient.On("GetPrices", ctx, tenant.Catalog, []string{"B0AAAAAAA1", "B0AAAAAAA2"}).
		Return(map[string]float64{"B0AAAAAAA1": 100.2, "B0AAAAAAA2": 180}, nil)

	productRepo.On("UpdateProduct", ctx, "B0AAAAAAA1", "tenant-1", mock.Anything).
		Return(false, errors.New("write failed"))
	productRepo.On("UpdateProduct", ctx, "B0AAAAAAA2", "tenant-1", mock.Anything).Return(true, nil)
	notifier.On("NotifyPriceChange", ctx, tenant, mock.Anything).Return()

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.Updated)
	notifier.AssertNumberOfCalls(t, "NotifyPriceChange", 1)
}

func TestReconcileService_Run_ChunksBatchToAPILimit(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	productRepo := new(MockProductRepository)
	catalogClient := new(MockCatalogClient)
	notifier := new(MockNotifier)

	tenant := completeTenant("tenant-1")

	products := make([]model.Product, 14)
	for i := range products {
		asin := []byte("B0AAAAAAA0")
		asin[9] = byte('A' + i)
		products[i] = staleProduct(string(asin), 50, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i)*time.Minute))
	}

	tenantRepo.On("ListTenantConfigs", ctx).Return([]model.TenantConfig{tenant}, nil)
	productRepo.On("ListStaleProducts", ctx, "tenant-1", 20).Return(products, nil)

	catalogClient.On("GetPrices", ctx, tenant.Catalog, mock.MatchedBy(func(asins []string) bool {
		return len(asins) == 10
	})).Return(map[string]float64{}, nil).Once()
	catalogClient.On("GetPrices", ctx, tenant.Catalog, mock.MatchedBy(func(asins []string) bool {
		return len(asins) == 4
	})).Return(map[string]float64{}, nil).Once()

	productRepo.On("UpdateProduct", ctx, mock.Anything, "tenant-1", mock.Anything).Return(true, nil)

	svc := NewReconcileService(tenantRepo, productRepo, catalogClient, notifier, 20, logger)
	summary, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 14, summary.Processed)
	assert.Equal(t, 14, summary.Rotated)
	catalogClient.AssertExpectations(t)
}

func TestReconcileService_Run_TenantListFailure(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tenantRepo := new(MockTenantRepository)
	tenantRepo.On("ListTenantConfigs", ctx).Return(nil, errors.New("database down"))

	svc := NewReconcileService(tenantRepo, new(MockProductRepository), new(MockCatalogClient), new(MockNotifier), 20, logger)
	summary, err := svc.Run(ctx)

	assert.Error(t, err)
	assert.Nil(t, summary)
}
