package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// DefaultMaxAttempts caps the number of existence checks per assignment.
const DefaultMaxAttempts = 10000

var (
	// ErrEmptySlug is returned when the title normalizes to an empty base slug.
	ErrEmptySlug = errors.New("title produces an empty slug")
	// ErrExhausted is returned when every candidate up to the attempt cap is taken.
	ErrExhausted = errors.New("slug candidates exhausted")
)

// Checker reports whether a slug is already used by a post other than excludeID.
type Checker interface {
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
}

// Request describes the post a slug is being assigned to.
type Request struct {
	Title string
	// PostID is the post being updated; empty on creation.
	PostID string
	// ExistingSlug is the persisted slug; empty on creation.
	ExistingSlug string
	// TitleChanged is true on creation and when an update changes the title.
	TitleChanged bool
}

// Assigner picks collision-free slugs. It never writes to the store.
type Assigner struct {
	checker     Checker
	maxAttempts int
	onCollision func()
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithMaxAttempts overrides DefaultMaxAttempts. Non-positive values are ignored.
func WithMaxAttempts(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithCollisionHook registers fn to be called once per occupied candidate.
func WithCollisionHook(fn func()) Option {
	return func(a *Assigner) {
		if fn != nil {
			a.onCollision = fn
		}
	}
}

// NewAssigner creates an Assigner backed by checker.
func NewAssigner(checker Checker, opts ...Option) *Assigner {
	a := &Assigner{
		checker:     checker,
		maxAttempts: DefaultMaxAttempts,
		onCollision: func() {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign returns the slug the post should carry.
//
// An update that keeps the title returns ExistingSlug untouched so existing
// links stay valid. Otherwise candidates are tried in the order base,
// base-1, base-2, ... and the first one not used by another post wins.
// The check-then-use sequence is racy under concurrent writers; callers
// must rely on a unique constraint and call Assign again on conflict.
func (a *Assigner) Assign(ctx context.Context, req Request) (string, error) {
	if !req.TitleChanged && req.ExistingSlug != "" {
		return req.ExistingSlug, nil
	}

	base := Normalize(req.Title)
	if base == "" {
		return "", ErrEmptySlug
	}

	candidate := base
	for attempt := 1; ; attempt++ {
		exists, err := a.checker.ExistsBySlug(ctx, candidate, req.PostID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}

		a.onCollision()
		if attempt >= a.maxAttempts {
			return "", fmt.Errorf("%w: %d candidates taken for %q", ErrExhausted, attempt, base)
		}
		candidate = base + "-" + strconv.Itoa(attempt)
	}
}
