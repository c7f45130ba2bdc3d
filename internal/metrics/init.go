package metrics

// InitializeMetrics pre-populates expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"compress", "resize"} {
		for _, outcome := range []string{"success", "failed", "aborted"} {
			JobsTotal.WithLabelValues(kind, outcome)
		}
		JobDuration.WithLabelValues(kind)
	}

	for _, tier := range []string{"anonymous", "authenticated"} {
		QuotaRejections.WithLabelValues(tier)
	}

	for _, op := range []string{"peek", "admit", "commit", "set_pro", "is_pro", "prune"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
