package model

// ReconcileSummary reports the outcome of one batch reconciliation run.
type ReconcileSummary struct {
	RunID          string `json:"runId"`
	Tenants        int    `json:"tenants"`
	TenantsSkipped int    `json:"tenantsSkipped"`
	TenantsFailed  int    `json:"tenantsFailed"`
	Processed      int    `json:"processed"`
	Updated        int    `json:"updated"`
	OutOfStock     int    `json:"outOfStock"`
	Unchanged      int    `json:"unchanged"`
	Rotated        int    `json:"rotated"`
	Skipped        int    `json:"skipped"`
	Errors         int    `json:"errors"`
}
