// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Post read path
	IncPostCacheHit()
	IncPostCacheMiss()
	ObservePostLookupDuration(duration time.Duration)

	// Content management
	IncPostCreated()
	IncPostUpdated()
	IncPostDeleted()
	IncCommentCreated()
	IncCategoryCreated()
	IncCategoryJoined()

	// Slug assignment
	IncSlugCollision()
	IncSlugRetry() // unique constraint lost to a concurrent writer

	// Auth
	IncLoginFailed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
