package model

import "strings"

// Credentials is the catalog API credential triple for one tenant.
// Values are opaque strings; they must be trimmed before use.
type Credentials struct {
	AccessKey  string `json:"accessKey"`
	SecretKey  string `json:"secretKey"`
	PartnerTag string `json:"partnerTag"`
}

// Trimmed returns a copy with surrounding whitespace removed from every
// credential field.
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		AccessKey:  strings.TrimSpace(c.AccessKey),
		SecretKey:  strings.TrimSpace(c.SecretKey),
		PartnerTag: strings.TrimSpace(c.PartnerTag),
	}
}

// Complete reports whether all three credential fields are present after
// trimming.
func (c Credentials) Complete() bool {
	t := c.Trimmed()
	return t.AccessKey != "" && t.SecretKey != "" && t.PartnerTag != ""
}

// TenantConfig holds one tenant's catalog API credentials and
// notification channel settings.
type TenantConfig struct {
	TenantID         string      `json:"tenantId" db:"tenant_id"`
	Catalog          Credentials `json:"catalog"`
	TelegramBotToken string      `json:"-" db:"tg_bot_token"`
	TelegramAdminID  string      `json:"-" db:"tg_admin_id"`
}

// CanNotify reports whether the tenant has a notification channel
// configured. Missing channel settings disable notifications for the
// tenant without affecting reconciliation.
func (t TenantConfig) CanNotify() bool {
	return strings.TrimSpace(t.TelegramBotToken) != "" && strings.TrimSpace(t.TelegramAdminID) != ""
}
