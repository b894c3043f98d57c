package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seranno/wayfarer/internal/testutils"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports/tests"
)

func newGraph(t *testing.T) *Graph {
	t.Helper()
	_, repo := testutils.SetupTestRepo(t)
	testutils.CaveStory(t, repo)
	testutils.SavePages(t, repo, "forest", map[string]string{
		"gate": `---
title: The Forest Gate
root: true
---
Tall trees swallow the path.`,
	})
	return New(loam.NewTypedRepository[PageMetadata](repo))
}

func TestGraph_Contract(t *testing.T) {
	graph := newGraph(t)

	tests.StoryGraphContractTest(t, graph,
		map[domain.StoryID]domain.PageID{
			"cave":   "start",
			"forest": "gate",
		},
		map[domain.StoryID][]domain.PageID{
			"cave":   {"start", "tunnel", "ledge", "lake"},
			"forest": {"gate"},
		},
	)
}

func TestGraph_PageContent(t *testing.T) {
	graph := newGraph(t)
	ctx := context.Background()

	page, err := graph.Page(ctx, "cave", "start")
	require.NoError(t, err)

	assert.Equal(t, "The Cave Mouth", page.Title)
	assert.True(t, page.Root)
	assert.Contains(t, page.Body, "cold wind")
	require.Len(t, page.Links, 2)
	assert.Equal(t, domain.PageID("tunnel"), page.Links[0].To)
	assert.Equal(t, "Crawl into the tunnel", page.Links[0].Label)
	assert.Equal(t, domain.PageID("ledge"), page.Links[1].To)
}

func TestGraph_StorySummary(t *testing.T) {
	graph := newGraph(t)
	ctx := context.Background()

	s, err := graph.Story(ctx, "cave")
	require.NoError(t, err)
	assert.Equal(t, "The Cave Mouth", s.Title, "story title comes from its root page")
	assert.Equal(t, domain.PageID("start"), s.Root)
	assert.Equal(t, 4, s.PageCount)
}

func TestGraph_MissingRootFails(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	testutils.SavePages(t, repo, "broken", map[string]string{
		"only": `---
title: No Root Here
---
Adrift.`,
	})
	graph := New(loam.NewTypedRepository[PageMetadata](repo))

	_, err := graph.Stories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root page")
}

func TestGraph_EndingPageHasNoLinks(t *testing.T) {
	graph := newGraph(t)

	page, err := graph.Page(context.Background(), "cave", "lake")
	require.NoError(t, err)
	assert.True(t, page.Ending())
}
