package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PostCacheHits             uint64
	PostCacheMisses           uint64
	PostLookupDurationCount   uint64
	PostLookupDurationTotalNs int64
	PostsCreated              uint64
	PostsUpdated              uint64
	PostsDeleted              uint64
	CommentsCreated           uint64
	CategoriesCreated         uint64
	CategoriesJoined          uint64
	SlugCollisions            uint64
	SlugRetries               uint64
	LoginsFailed              uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint and tests.
type InMemoryRecorder struct {
	postCacheHits             atomic.Uint64
	postCacheMisses           atomic.Uint64
	postLookupDurationCount   atomic.Uint64
	postLookupDurationTotalNs atomic.Int64
	postsCreated              atomic.Uint64
	postsUpdated              atomic.Uint64
	postsDeleted              atomic.Uint64
	commentsCreated           atomic.Uint64
	categoriesCreated         atomic.Uint64
	categoriesJoined          atomic.Uint64
	slugCollisions            atomic.Uint64
	slugRetries               atomic.Uint64
	loginsFailed              atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PostCacheHits:             m.postCacheHits.Load(),
		PostCacheMisses:           m.postCacheMisses.Load(),
		PostLookupDurationCount:   m.postLookupDurationCount.Load(),
		PostLookupDurationTotalNs: m.postLookupDurationTotalNs.Load(),
		PostsCreated:              m.postsCreated.Load(),
		PostsUpdated:              m.postsUpdated.Load(),
		PostsDeleted:              m.postsDeleted.Load(),
		CommentsCreated:           m.commentsCreated.Load(),
		CategoriesCreated:         m.categoriesCreated.Load(),
		CategoriesJoined:          m.categoriesJoined.Load(),
		SlugCollisions:            m.slugCollisions.Load(),
		SlugRetries:               m.slugRetries.Load(),
		LoginsFailed:              m.loginsFailed.Load(),
	}
}

// IncPostCacheHit increments the post cache hit counter.
func (m *InMemoryRecorder) IncPostCacheHit() { m.postCacheHits.Add(1) }

// IncPostCacheMiss increments the post cache miss counter.
func (m *InMemoryRecorder) IncPostCacheMiss() { m.postCacheMisses.Add(1) }

// ObservePostLookupDuration records a post-by-slug lookup.
func (m *InMemoryRecorder) ObservePostLookupDuration(duration time.Duration) {
	m.postLookupDurationCount.Add(1)
	m.postLookupDurationTotalNs.Add(duration.Nanoseconds())
}

func (m *InMemoryRecorder) IncPostCreated()     { m.postsCreated.Add(1) }
func (m *InMemoryRecorder) IncPostUpdated()     { m.postsUpdated.Add(1) }
func (m *InMemoryRecorder) IncPostDeleted()     { m.postsDeleted.Add(1) }
func (m *InMemoryRecorder) IncCommentCreated()  { m.commentsCreated.Add(1) }
func (m *InMemoryRecorder) IncCategoryCreated() { m.categoriesCreated.Add(1) }
func (m *InMemoryRecorder) IncCategoryJoined()  { m.categoriesJoined.Add(1) }

// IncSlugCollision counts one occupied slug candidate.
func (m *InMemoryRecorder) IncSlugCollision() { m.slugCollisions.Add(1) }

// IncSlugRetry counts a slug re-selection after a unique violation.
func (m *InMemoryRecorder) IncSlugRetry() { m.slugRetries.Add(1) }

func (m *InMemoryRecorder) IncLoginFailed() { m.loginsFailed.Add(1) }
