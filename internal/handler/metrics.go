package handler

import (
	"fmt"
	"net/http"

	"github.com/inkfeed/inkfeed/internal/metrics"
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

	writeMetric(w, "inkfeed_signups_total %d\n", snap.Signups)
	writeMetric(w, "inkfeed_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "inkfeed_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "inkfeed_posts_created_total %d\n", snap.PostsCreated)
	writeMetric(w, "inkfeed_posts_updated_total %d\n", snap.PostsUpdated)
	writeMetric(w, "inkfeed_posts_deleted_total %d\n", snap.PostsDeleted)

	writeMetric(w, "inkfeed_attachment_cleanups_total{status=\"enqueued\"} %d\n", snap.CleanupsEnqueued)
	writeMetric(w, "inkfeed_attachment_cleanups_total{status=\"removed\"} %d\n", snap.CleanupsRemoved)
	writeMetric(w, "inkfeed_attachment_cleanups_total{status=\"failed\"} %d\n", snap.CleanupsFailed)
	writeMetric(w, "inkfeed_attachment_cleanups_total{status=\"dead_lettered\"} %d\n", snap.CleanupsDeadLetter)
	writeMetric(w, "inkfeed_attachment_cleanup_queue_depth %d\n", snap.CleanupQueueDepth)

	writeMetric(w, "inkfeed_post_events_published_total{status=\"success\"} %d\n", snap.PostEventsPublished)
	writeMetric(w, "inkfeed_post_events_published_total{status=\"failed\"} %d\n", snap.PostEventsFailed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
