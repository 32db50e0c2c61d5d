package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncPostCacheHit()                                 {}
func (n *NoopRecorder) IncPostCacheMiss()                                {}
func (n *NoopRecorder) ObservePostLookupDuration(duration time.Duration) {}
func (n *NoopRecorder) IncPostCreated()                                  {}
func (n *NoopRecorder) IncPostUpdated()                                  {}
func (n *NoopRecorder) IncPostDeleted()                                  {}
func (n *NoopRecorder) IncCommentCreated()                               {}
func (n *NoopRecorder) IncCategoryCreated()                              {}
func (n *NoopRecorder) IncCategoryJoined()                               {}
func (n *NoopRecorder) IncSlugCollision()                                {}
func (n *NoopRecorder) IncSlugRetry()                                    {}
func (n *NoopRecorder) IncLoginFailed()                                  {}
