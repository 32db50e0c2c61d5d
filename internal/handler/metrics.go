package handler

import (
	"fmt"
	"net/http"

	"github.com/inkwell/inkwell/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "inkwell_post_cache_hits_total %d\n", snap.PostCacheHits)
	writeMetric(w, "inkwell_post_cache_misses_total %d\n", snap.PostCacheMisses)
	writeMetric(w, "inkwell_post_lookup_duration_seconds_count %d\n", snap.PostLookupDurationCount)
	writeMetric(w, "inkwell_post_lookup_duration_seconds_sum %.6f\n", float64(snap.PostLookupDurationTotalNs)/1e9)

	writeMetric(w, "inkwell_posts_total{op=\"created\"} %d\n", snap.PostsCreated)
	writeMetric(w, "inkwell_posts_total{op=\"updated\"} %d\n", snap.PostsUpdated)
	writeMetric(w, "inkwell_posts_total{op=\"deleted\"} %d\n", snap.PostsDeleted)
	writeMetric(w, "inkwell_comments_created_total %d\n", snap.CommentsCreated)

	writeMetric(w, "inkwell_category_requests_total{outcome=\"created\"} %d\n", snap.CategoriesCreated)
	writeMetric(w, "inkwell_category_requests_total{outcome=\"joined\"} %d\n", snap.CategoriesJoined)

	writeMetric(w, "inkwell_slug_collisions_total %d\n", snap.SlugCollisions)
	writeMetric(w, "inkwell_slug_storage_retries_total %d\n", snap.SlugRetries)

	writeMetric(w, "inkwell_logins_failed_total %d\n", snap.LoginsFailed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
