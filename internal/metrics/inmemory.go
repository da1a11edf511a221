package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups             uint64
	LoginsSucceeded     uint64
	LoginsFailed        uint64
	PostsCreated        uint64
	PostsUpdated        uint64
	PostsDeleted        uint64
	CleanupsEnqueued    uint64
	CleanupsRemoved     uint64
	CleanupsFailed      uint64
	CleanupsDeadLetter  uint64
	CleanupQueueDepth   int64
	PostEventsPublished uint64
	PostEventsFailed    uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	signups             atomic.Uint64
	loginsSucceeded     atomic.Uint64
	loginsFailed        atomic.Uint64
	postsCreated        atomic.Uint64
	postsUpdated        atomic.Uint64
	postsDeleted        atomic.Uint64
	cleanupsEnqueued    atomic.Uint64
	cleanupsRemoved     atomic.Uint64
	cleanupsFailed      atomic.Uint64
	cleanupsDeadLetter  atomic.Uint64
	cleanupQueueDepth   atomic.Int64
	postEventsPublished atomic.Uint64
	postEventsFailed    atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:             m.signups.Load(),
		LoginsSucceeded:     m.loginsSucceeded.Load(),
		LoginsFailed:        m.loginsFailed.Load(),
		PostsCreated:        m.postsCreated.Load(),
		PostsUpdated:        m.postsUpdated.Load(),
		PostsDeleted:        m.postsDeleted.Load(),
		CleanupsEnqueued:    m.cleanupsEnqueued.Load(),
		CleanupsRemoved:     m.cleanupsRemoved.Load(),
		CleanupsFailed:      m.cleanupsFailed.Load(),
		CleanupsDeadLetter:  m.cleanupsDeadLetter.Load(),
		CleanupQueueDepth:   m.cleanupQueueDepth.Load(),
		PostEventsPublished: m.postEventsPublished.Load(),
		PostEventsFailed:    m.postEventsFailed.Load(),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	m.signups.Add(1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// IncPostCreated increments post created counter.
func (m *InMemoryRecorder) IncPostCreated() {
	m.postsCreated.Add(1)
}

// IncPostUpdated increments post updated counter.
func (m *InMemoryRecorder) IncPostUpdated() {
	m.postsUpdated.Add(1)
}

// IncPostDeleted increments post deleted counter.
func (m *InMemoryRecorder) IncPostDeleted() {
	m.postsDeleted.Add(1)
}

// IncAttachmentCleanup increments the cleanup counter for status.
func (m *InMemoryRecorder) IncAttachmentCleanup(status string) {
	switch status {
	case "enqueued":
		m.cleanupsEnqueued.Add(1)
	case "removed":
		m.cleanupsRemoved.Add(1)
	case "dead_lettered":
		m.cleanupsDeadLetter.Add(1)
	default:
		m.cleanupsFailed.Add(1)
	}
}

// SetCleanupQueueDepth records pending plus unread cleanup tasks.
func (m *InMemoryRecorder) SetCleanupQueueDepth(depth int64) {
	m.cleanupQueueDepth.Store(depth)
}

// IncPostEventPublished increments the event counter for status.
func (m *InMemoryRecorder) IncPostEventPublished(status string) {
	if status == "success" {
		m.postEventsPublished.Add(1)
		return
	}
	m.postEventsFailed.Add(1)
}
