package slug

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// memChecker is an in-memory Checker mapping slug -> post ID.
type memChecker struct {
	slugs map[string]string
	calls int
	err   error
}

func newMemChecker(taken map[string]string) *memChecker {
	if taken == nil {
		taken = map[string]string{}
	}
	return &memChecker{slugs: taken}
}

func (m *memChecker) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	owner, ok := m.slugs[slug]
	if !ok {
		return false, nil
	}
	return owner != excludeID, nil
}

func TestAssign_FreshTitleReturnsBase(t *testing.T) {
	ctx := context.Background()
	titles := []string{"Hello World", "Go Generics in Practice", "Café au lait"}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			a := NewAssigner(newMemChecker(nil))

			got, err := a.Assign(ctx, Request{Title: title, TitleChanged: true})
			if err != nil {
				t.Fatalf("Assign: %v", err)
			}
			if got != Normalize(title) {
				t.Errorf("Assign = %q, want %q", got, Normalize(title))
			}
		})
	}
}

func TestAssign_CollisionsGetIncreasingSuffix(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(nil)
	a := NewAssigner(checker)

	want := []string{"hello-world", "hello-world-1", "hello-world-2", "hello-world-3"}
	for i, expected := range want {
		got, err := a.Assign(ctx, Request{Title: "Hello World", TitleChanged: true})
		if err != nil {
			t.Fatalf("Assign #%d: %v", i, err)
		}
		if got != expected {
			t.Fatalf("Assign #%d = %q, want %q", i, got, expected)
		}
		if _, taken := checker.slugs[got]; taken {
			t.Fatalf("Assign #%d reused occupied slug %q", i, got)
		}
		checker.slugs[got] = fmt.Sprintf("post-%d", i)
	}
}

func TestAssign_FillsFirstGap(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(map[string]string{
		"news":   "p1",
		"news-1": "p2",
		"news-3": "p3",
	})

	got, err := NewAssigner(checker).Assign(ctx, Request{Title: "News", TitleChanged: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got != "news-2" {
		t.Errorf("Assign = %q, want news-2", got)
	}
}

func TestAssign_UnchangedTitleKeepsSlug(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(map[string]string{
		"hello-world":   "other",
		"hello-world-1": "mine",
	})
	a := NewAssigner(checker)

	req := Request{
		Title:        "Hello World",
		PostID:       "mine",
		ExistingSlug: "hello-world-1",
		TitleChanged: false,
	}

	for i := 0; i < 2; i++ {
		got, err := a.Assign(ctx, req)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if got != "hello-world-1" {
			t.Fatalf("Assign = %q, want existing slug", got)
		}
	}

	// Other posts' slugs do not matter.
	checker.slugs["hello-world-1-other"] = "x"
	delete(checker.slugs, "hello-world")
	got, err := a.Assign(ctx, req)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got != "hello-world-1" {
		t.Fatalf("Assign = %q, want existing slug", got)
	}

	if checker.calls != 0 {
		t.Errorf("expected no store queries, got %d", checker.calls)
	}
}

func TestAssign_UpdateExcludesOwnPost(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(map[string]string{"release-notes": "p1"})

	// p1 renames its title to something normalizing to its own slug.
	got, err := NewAssigner(checker).Assign(ctx, Request{
		Title:        "Release Notes!",
		PostID:       "p1",
		ExistingSlug: "release-notes",
		TitleChanged: true,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got != "release-notes" {
		t.Errorf("Assign = %q, want release-notes", got)
	}
}

func TestAssign_UpdateWithNewTitleRecomputes(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(map[string]string{
		"old-title": "p1",
		"new-title": "p2",
	})

	got, err := NewAssigner(checker).Assign(ctx, Request{
		Title:        "New Title",
		PostID:       "p1",
		ExistingSlug: "old-title",
		TitleChanged: true,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got != "new-title-1" {
		t.Errorf("Assign = %q, want new-title-1", got)
	}
}

func TestAssign_EmptyBaseRejected(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(nil)

	_, err := NewAssigner(checker).Assign(ctx, Request{Title: "?!?", TitleChanged: true})
	if !errors.Is(err, ErrEmptySlug) {
		t.Fatalf("expected ErrEmptySlug, got %v", err)
	}
	if checker.calls != 0 {
		t.Errorf("expected no store queries, got %d", checker.calls)
	}
}

func TestAssign_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	taken := map[string]string{"busy": "p0"}
	for i := 1; i < 5; i++ {
		taken[fmt.Sprintf("busy-%d", i)] = fmt.Sprintf("p%d", i)
	}
	checker := newMemChecker(taken)

	_, err := NewAssigner(checker, WithMaxAttempts(5)).Assign(ctx, Request{Title: "Busy", TitleChanged: true})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if checker.calls != 5 {
		t.Errorf("calls = %d, want 5", checker.calls)
	}

	got, err := NewAssigner(checker, WithMaxAttempts(6)).Assign(ctx, Request{Title: "Busy", TitleChanged: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got != "busy-5" {
		t.Errorf("Assign = %q, want busy-5", got)
	}
}

func TestAssign_CollisionHook(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(map[string]string{"a": "p1", "a-1": "p2"})

	collisions := 0
	a := NewAssigner(checker, WithCollisionHook(func() { collisions++ }))

	if _, err := a.Assign(ctx, Request{Title: "A", TitleChanged: true}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if collisions != 2 {
		t.Errorf("collisions = %d, want 2", collisions)
	}
}

func TestAssign_StoreError(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	checker := newMemChecker(nil)
	checker.err = storeErr

	_, err := NewAssigner(checker).Assign(ctx, Request{Title: "Anything", TitleChanged: true})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAssign_UniqueAcrossSequence(t *testing.T) {
	ctx := context.Background()
	checker := newMemChecker(nil)
	a := NewAssigner(checker)

	titles := []string{"Go", "go", "GO!", "Go?", "Rust", "go", "Go 2", "go-2", "Go"}
	for i, title := range titles {
		s, err := a.Assign(ctx, Request{Title: title, TitleChanged: true})
		if err != nil {
			t.Fatalf("Assign(%q): %v", title, err)
		}
		if owner, dup := checker.slugs[s]; dup {
			t.Fatalf("slug %q for %q already owned by %s", s, title, owner)
		}
		checker.slugs[s] = fmt.Sprintf("p%d", i)
	}

	if len(checker.slugs) != len(titles) {
		t.Errorf("distinct slugs = %d, want %d", len(checker.slugs), len(titles))
	}
}
