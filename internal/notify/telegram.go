package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"catalog-sync/internal/model"

	"github.com/rs/zerolog"
)

// Config holds notification channel settings shared by all tenants.
// Per-tenant bot token and admin chat come from TenantConfig.
type Config struct {
	APIBase      string
	CaptionLimit int
	Timezone     string
}

// DefaultConfig returns the default Telegram notifier configuration.
func DefaultConfig() Config {
	return Config{
		APIBase:      "https://api.telegram.org",
		CaptionLimit: 1024,
		Timezone:     "Africa/Cairo",
	}
}

// Notifier delivers price-change notices to a tenant's admin channel.
type Notifier interface {
	// NotifyPriceChange sends a photo-with-caption message for a changed
	// delta. Delivery is best-effort and at-most-once: failures are
	// logged and swallowed, never surfaced to the caller.
	NotifyPriceChange(ctx context.Context, tenant model.TenantConfig, delta model.PriceDelta)
}

// telegramNotifier implements Notifier against the Telegram bot API.
type telegramNotifier struct {
	cfg        Config
	location   *time.Location
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTelegramNotifier creates a Telegram-backed notifier.
func NewTelegramNotifier(cfg Config, httpClient *http.Client, logger zerolog.Logger) Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, falling back to UTC")
		location = time.UTC
	}

	return &telegramNotifier{
		cfg:        cfg,
		location:   location,
		httpClient: httpClient,
		logger:     logger.With().Str("notifier", "telegram").Logger(),
	}
}

// sendPhotoRequest is the Telegram sendPhoto payload.
type sendPhotoRequest struct {
	ChatID    string `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption"`
	ParseMode string `json:"parse_mode"`
}

// NotifyPriceChange sends a photo-with-caption message for a changed delta.
func (n *telegramNotifier) NotifyPriceChange(ctx context.Context, tenant model.TenantConfig, delta model.PriceDelta) {
	if !tenant.CanNotify() {
		n.logger.Debug().
			Str("tenant_id", tenant.TenantID).
			Msg("tenant has no notification channel configured, skipping")
		return
	}

	logger := n.logger.With().
		Str("tenant_id", tenant.TenantID).
		Str("asin", delta.ASIN).
		Logger()

	payload := sendPhotoRequest{
		ChatID:    strings.TrimSpace(tenant.TelegramAdminID),
		Photo:     delta.Image,
		Caption:   truncate(n.caption(delta), n.cfg.CaptionLimit),
		ParseMode: "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal notification payload")
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", n.cfg.APIBase, strings.TrimSpace(tenant.TelegramBotToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("failed to deliver notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error().Int("status", resp.StatusCode).Msg("notification rejected by messaging API")
		return
	}

	logger.Debug().Msg("notification delivered")
}

// caption renders the templated change notice. Prices are shown in
// whole currency units, matching downstream display.
func (n *telegramNotifier) caption(delta model.PriceDelta) string {
	title := delta.Title
	if title == "" {
		title = "Untitled"
	}

	status := "✅ Price updated"
	if delta.Status == model.DeltaOutOfStock {
		status = "❌ Out of stock"
	}

	return strings.TrimSpace(fmt.Sprintf(`
🔔 <b>Automatic product update</b>

📌 <b>Title:</b> %s
🆔 <b>ASIN:</b> <code>%s</code>

💰 <b>Price:</b> %d → <b>%d</b>
%s

🔗 <b>Product link:</b>
%s

🕒 %s
`,
		title,
		delta.ASIN,
		int64(math.Floor(delta.OldPrice)),
		int64(math.Floor(delta.NewPrice)),
		status,
		delta.Link,
		time.Now().In(n.location).Format("03:04 PM"),
	))
}

// truncate limits a caption to the messaging API's maximum length
// without splitting a multi-byte character.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
