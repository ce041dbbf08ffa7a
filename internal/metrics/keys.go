// Package metrics tracks publishing outcomes in Redis for the dashboard's
// stats endpoints.
package metrics

// Key layout. Counters are kept per site so the dashboard can break stats
// down by destination.
const (
	keyPrefix = "wppub:metrics"

	// KeyRecentPosts is the capped list of recently published posts.
	KeyRecentPosts = keyPrefix + ":recent_posts"
	// KeyLastReconcile is the timestamp of the last reconciliation run.
	KeyLastReconcile = keyPrefix + ":last_reconcile"

	// MaxRecentPosts caps the recent posts list.
	MaxRecentPosts = 100

	metricsTTLDays = 30
	hoursPerDay    = 24
)

func publishedKey(siteID string) string {
	return keyPrefix + ":published:" + siteID
}

func failedKey(siteID string) string {
	return keyPrefix + ":failed:" + siteID
}

func reconciledKey(siteID string) string {
	return keyPrefix + ":reconciled:" + siteID
}
