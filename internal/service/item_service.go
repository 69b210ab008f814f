package service

import (
	"context"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/model"

	"github.com/rs/zerolog"
)

// itemService implements ItemService.
type itemService struct {
	catalog catalog.Client
	logger  zerolog.Logger
}

// NewItemService creates a new item lookup service.
func NewItemService(catalogClient catalog.Client, logger zerolog.Logger) ItemService {
	return &itemService{
		catalog: catalogClient,
		logger:  logger.With().Str("service", "item").Logger(),
	}
}

// Lookup validates the identifier and credentials, then fetches the raw
// catalog response for the item.
func (s *itemService) Lookup(ctx context.Context, asin string, creds model.Credentials) ([]byte, error) {
	asin = model.NormalizeASIN(asin)
	if asin == "" {
		return nil, model.ErrMissingASIN
	}
	if !model.ValidASIN(asin) {
		s.logger.Warn().Str("asin", asin).Msg("rejected malformed item identifier")
		return nil, model.ErrInvalidASIN
	}
	if !creds.Complete() {
		return nil, model.ErrMissingCredentials
	}

	body, err := s.catalog.GetItemRaw(ctx, creds, asin)
	if err != nil {
		s.logger.Error().Err(err).Str("asin", asin).Msg("item lookup failed upstream")
		return nil, err
	}

	s.logger.Debug().Str("asin", asin).Int("bytes", len(body)).Msg("item lookup succeeded")
	return body, nil
}
