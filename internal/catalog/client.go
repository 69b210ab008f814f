package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-sync/internal/model"
	"catalog-sync/internal/signing"

	"github.com/rs/zerolog"
)

// MaxItemsPerRequest is the upstream GetItems ceiling on item IDs per
// request. Larger batches must be split by the caller.
const MaxItemsPerRequest = 10

// batchResources is the reduced resource set fetched during price
// reconciliation.
var batchResources = []string{
	"Images.Primary.HighRes",
	"ItemInfo.Title",
	"OffersV2.Listings.Price",
}

// lookupResources is the full resource set returned by the single-item
// lookup endpoint.
var lookupResources = []string{
	"Images.Primary.HighRes",
	"Images.Primary.Large",
	"Images.Variants.HighRes",
	"Images.Variants.Large",
	"ItemInfo.Title",
	"ItemInfo.Features",
	"ItemInfo.Classifications",
	"ItemInfo.ByLineInfo",
	"OffersV2.Listings.Price",
	"Offers.Listings.SavingBasis",
	"CustomerReviews.Count",
	"CustomerReviews.StarRating",
}

// Config holds the catalog API target. Endpoint overrides the default
// https://Host base URL; the signed host header always stays Host.
type Config struct {
	Host        string
	Path        string
	Region      string
	Service     string
	Target      string
	Marketplace string
	Languages   []string
	Endpoint    string
}

// UpstreamError reports a failed call to the catalog API: either a
// transport failure or a non-2xx response.
type UpstreamError struct {
	StatusCode int
	cause      error
}

func (e *UpstreamError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("catalog API request failed: %v", e.cause)
	}
	return fmt.Sprintf("catalog API returned status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.cause
}

// Client fetches item data from the partner catalog API.
type Client interface {
	// GetPrices fetches current prices for up to MaxItemsPerRequest
	// identifiers in a single signed call. Identifiers without an offer
	// in the response are absent from the returned map.
	GetPrices(ctx context.Context, creds model.Credentials, asins []string) (map[string]float64, error)

	// GetItemRaw fetches the full resource set for a single identifier
	// and returns the upstream response body verbatim.
	GetItemRaw(ctx context.Context, creds model.Credentials, asin string) ([]byte, error)
}

// client implements Client over net/http with request signing.
type client struct {
	cfg        Config
	signer     signing.Signer
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a catalog API client.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &client{
		cfg: cfg,
		signer: signing.New(signing.Config{
			Host:    cfg.Host,
			Path:    cfg.Path,
			Region:  cfg.Region,
			Service: cfg.Service,
			Target:  cfg.Target,
		}),
		httpClient: httpClient,
		logger:     logger.With().Str("client", "catalog").Logger(),
	}
}

// getItemsRequest is the wire payload for a GetItems call.
type getItemsRequest struct {
	ItemIds               []string `json:"ItemIds"`
	PartnerTag            string   `json:"PartnerTag"`
	PartnerType           string   `json:"PartnerType"`
	Marketplace           string   `json:"Marketplace"`
	LanguagesOfPreference []string `json:"LanguagesOfPreference,omitempty"`
	Resources             []string `json:"Resources"`
}

// getItemsResponse covers the price path of the upstream response.
type getItemsResponse struct {
	ItemsResult struct {
		Items []struct {
			ASIN     string `json:"ASIN"`
			OffersV2 struct {
				Listings []struct {
					Price struct {
						Money struct {
							Amount *float64 `json:"Amount"`
						} `json:"Money"`
					} `json:"Price"`
				} `json:"Listings"`
			} `json:"OffersV2"`
		} `json:"Items"`
	} `json:"ItemsResult"`
}

// GetPrices fetches current prices for a batch of identifiers.
func (c *client) GetPrices(ctx context.Context, creds model.Credentials, asins []string) (map[string]float64, error) {
	if len(asins) == 0 {
		return map[string]float64{}, nil
	}
	if len(asins) > MaxItemsPerRequest {
		return nil, fmt.Errorf("batch of %d exceeds the %d item limit per request", len(asins), MaxItemsPerRequest)
	}

	creds = creds.Trimmed()
	body, err := c.post(ctx, creds, getItemsRequest{
		ItemIds:     asins,
		PartnerTag:  creds.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace,
		Resources:   batchResources,
	})
	if err != nil {
		return nil, err
	}

	// A malformed or empty item list means no prices were found, not an
	// error; the reconciler treats every item as having no fetched price.
	var parsed getItemsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn().Err(err).Msg("unparseable catalog response, treating as no prices")
		return map[string]float64{}, nil
	}

	prices := make(map[string]float64, len(parsed.ItemsResult.Items))
	for _, item := range parsed.ItemsResult.Items {
		if len(item.OffersV2.Listings) == 0 {
			continue
		}
		amount := item.OffersV2.Listings[0].Price.Money.Amount
		if amount == nil {
			continue
		}
		prices[model.NormalizeASIN(item.ASIN)] = *amount
	}

	c.logger.Debug().
		Int("requested", len(asins)).
		Int("priced", len(prices)).
		Msg("fetched catalog prices")

	return prices, nil
}

// GetItemRaw fetches the full resource set for one identifier.
func (c *client) GetItemRaw(ctx context.Context, creds model.Credentials, asin string) ([]byte, error) {
	creds = creds.Trimmed()
	return c.post(ctx, creds, getItemsRequest{
		ItemIds:               []string{asin},
		PartnerTag:            creds.PartnerTag,
		PartnerType:           "Associates",
		Marketplace:           c.cfg.Marketplace,
		LanguagesOfPreference: c.cfg.Languages,
		Resources:             lookupResources,
	})
}

// post signs and issues exactly one POST to the catalog API and returns
// the response body. Non-2xx responses and transport failures surface
// as *UpstreamError.
func (c *client) post(ctx context.Context, creds model.Credentials, payload getItemsRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog payload: %w", err)
	}

	// The timestamp is captured once and shared by the signature and
	// the x-amz-date header; the two must not diverge.
	now := time.Now()
	headers := c.signer.Headers(now)
	headers["Authorization"] = c.signer.Authorization(creds.AccessKey, creds.SecretKey, now, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	for name, value := range headers {
		if name == "host" {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("catalog request failed")
		return nil, &UpstreamError{cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to read catalog response")
		return nil, &UpstreamError{cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Msg("catalog API returned non-2xx status")
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	return respBody, nil
}

func (c *client) endpoint() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint + c.cfg.Path
	}
	return "https://" + c.cfg.Host + c.cfg.Path
}
