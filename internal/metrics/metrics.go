// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncSignup()
	IncLogin(status string) // status: "success" or "failed"

	// Feed metrics
	IncPostCreated()
	IncPostUpdated()
	IncPostDeleted()

	// Attachment cleanup metrics
	IncAttachmentCleanup(status string) // status: "enqueued", "removed", "failed", "dead_lettered"
	SetCleanupQueueDepth(depth int64)

	// Post event metrics
	IncPostEventPublished(status string) // status: "success" or "failed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
