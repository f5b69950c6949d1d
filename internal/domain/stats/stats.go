// Package stats defines the admin overview counters.
package stats

// Summary counts the resources across all tenants.
type Summary struct {
	Tenants         int `json:"tenants"`
	ActiveTenants   int `json:"active_tenants"`
	Users           int `json:"users"`
	ActiveUsers     int `json:"active_users"`
	APITokens       int `json:"api_tokens"`
	ActiveAPITokens int `json:"active_api_tokens"`
	Records         int `json:"records"`
	Executions      int `json:"executions"`
}
