package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports"
)

// StoryGraphContractTest is a reusable test suite that verifies if an adapter
// complies with ports.StoryGraph. The graph must contain exactly the given
// stories, and every page listed in wantPages must resolve.
func StoryGraphContractTest(t *testing.T, graph ports.StoryGraph, wantStories map[domain.StoryID]domain.PageID, wantPages map[domain.StoryID][]domain.PageID) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Stories
	t.Run("Stories", func(t *testing.T) {
		stories, err := graph.Stories(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing stories: %v", err)
		}
		if len(stories) != len(wantStories) {
			t.Errorf("expected %d stories, got %d", len(wantStories), len(stories))
		}
		for _, s := range stories {
			root, ok := wantStories[s.ID]
			if !ok {
				t.Errorf("unexpected story %s in list", s.ID)
				continue
			}
			if s.Root != root {
				t.Errorf("story %s root = %s, want %s", s.ID, s.Root, root)
			}
		}
	})

	// 2. Test Root resolution
	t.Run("Root", func(t *testing.T) {
		for id, want := range wantStories {
			root, err := graph.Root(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error resolving root of %s: %v", id, err)
			}
			if root != want {
				t.Errorf("root of %s = %s, want %s", id, root, want)
			}
		}
	})

	// 3. Test Page retrieval
	t.Run("Page_Success", func(t *testing.T) {
		for story, pages := range wantPages {
			for _, id := range pages {
				page, err := graph.Page(ctx, story, id)
				if err != nil {
					t.Fatalf("unexpected error getting page %s/%s: %v", story, id, err)
				}
				if page.ID != id {
					t.Errorf("page ID mismatch. got %q, want %q", page.ID, id)
				}
				if page.Story != story {
					t.Errorf("page %s story = %q, want %q", id, page.Story, story)
				}
			}
		}
	})

	// 4. Test NotFound errors
	t.Run("Page_NotFound", func(t *testing.T) {
		for story := range wantPages {
			_, err := graph.Page(ctx, story, "non-existent-page")
			if !errors.Is(err, domain.ErrPageNotFound) {
				t.Errorf("expected ErrPageNotFound for missing page, got %v", err)
			}
			break
		}
		_, err := graph.Story(ctx, "non-existent-story")
		if !errors.Is(err, domain.ErrStoryNotFound) {
			t.Errorf("expected ErrStoryNotFound for missing story, got %v", err)
		}
	})

	// 5. Test PageExists
	t.Run("PageExists", func(t *testing.T) {
		for story, pages := range wantPages {
			for _, id := range pages {
				ok, err := graph.PageExists(ctx, story, id)
				if err != nil {
					t.Fatalf("unexpected error checking page %s/%s: %v", story, id, err)
				}
				if !ok {
					t.Errorf("page %s/%s should exist", story, id)
				}
			}
			ok, err := graph.PageExists(ctx, story, "non-existent-page")
			if err != nil {
				t.Fatalf("unexpected error checking missing page: %v", err)
			}
			if ok {
				t.Error("non-existent page reported as existing")
			}
		}
	})

	// 6. Test Pages listing
	t.Run("Pages", func(t *testing.T) {
		for story, want := range wantPages {
			pages, err := graph.Pages(ctx, story)
			if err != nil {
				t.Fatalf("unexpected error listing pages of %s: %v", story, err)
			}
			if len(pages) != len(want) {
				t.Errorf("story %s: expected %d pages, got %d", story, len(want), len(pages))
			}
			lookup := make(map[domain.PageID]bool)
			for _, p := range pages {
				lookup[p.ID] = true
			}
			for _, id := range want {
				if !lookup[id] {
					t.Errorf("page %s missing from %s listing", id, story)
				}
			}
		}
	})
}
