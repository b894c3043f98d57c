package memory

import (
	"context"
	"fmt"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Graph implements ports.StoryGraph using in-memory maps.
// It is read-only after construction and safe for concurrent use.
type Graph struct {
	stories map[domain.StoryID]domain.Story
	order   []domain.StoryID
	pages   map[domain.StoryID]map[domain.PageID]domain.Page
	byStory map[domain.StoryID][]domain.PageID
}

// NewFromPages assembles a graph from page definitions.
// Each story must designate exactly one root page. The story summary is
// derived from its root: the root's title becomes the story title.
// This handles assembly automatically, improving DX for tests.
func NewFromPages(pages ...domain.Page) (*Graph, error) {
	g := &Graph{
		stories: make(map[domain.StoryID]domain.Story),
		pages:   make(map[domain.StoryID]map[domain.PageID]domain.Page),
		byStory: make(map[domain.StoryID][]domain.PageID),
	}

	for _, p := range pages {
		if p.ID == "" || p.Story == "" {
			return nil, fmt.Errorf("page missing ID or story: %+v", p)
		}
		sp, ok := g.pages[p.Story]
		if !ok {
			sp = make(map[domain.PageID]domain.Page)
			g.pages[p.Story] = sp
			g.order = append(g.order, p.Story)
		}
		if _, dup := sp[p.ID]; dup {
			return nil, fmt.Errorf("duplicate page %s in story %s", p.ID, p.Story)
		}
		sp[p.ID] = clonePage(p)
		g.byStory[p.Story] = append(g.byStory[p.Story], p.ID)
	}

	for _, sid := range g.order {
		var root domain.PageID
		for _, pid := range g.byStory[sid] {
			if g.pages[sid][pid].Root {
				if root != "" {
					return nil, fmt.Errorf("story %s has multiple root pages", sid)
				}
				root = pid
			}
		}
		if root == "" {
			return nil, fmt.Errorf("story %s has no root page", sid)
		}
		rp := g.pages[sid][root]
		g.stories[sid] = domain.Story{
			ID:        sid,
			Title:     rp.Title,
			Root:      root,
			PageCount: len(g.byStory[sid]),
		}
	}

	return g, nil
}

// Stories lists all stories in declaration order.
func (g *Graph) Stories(ctx context.Context) ([]domain.Story, error) {
	out := make([]domain.Story, 0, len(g.order))
	for _, sid := range g.order {
		out = append(out, g.stories[sid])
	}
	return out, nil
}

// Story retrieves a story summary.
func (g *Graph) Story(ctx context.Context, id domain.StoryID) (*domain.Story, error) {
	s, ok := g.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return &s, nil
}

// Root resolves the entry page of a story.
func (g *Graph) Root(ctx context.Context, id domain.StoryID) (domain.PageID, error) {
	s, ok := g.stories[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return s.Root, nil
}

// Page retrieves a full page definition.
func (g *Graph) Page(ctx context.Context, story domain.StoryID, page domain.PageID) (*domain.Page, error) {
	sp, ok := g.pages[story]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, story)
	}
	p, ok := sp[page]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrPageNotFound, story, page)
	}
	c := clonePage(p)
	return &c, nil
}

// PageExists reports whether a page exists in the story.
func (g *Graph) PageExists(ctx context.Context, story domain.StoryID, page domain.PageID) (bool, error) {
	sp, ok := g.pages[story]
	if !ok {
		return false, nil
	}
	_, ok = sp[page]
	return ok, nil
}

// Pages lists all pages of a story in declaration order.
func (g *Graph) Pages(ctx context.Context, story domain.StoryID) ([]domain.Page, error) {
	ids, ok := g.byStory[story]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, story)
	}
	out := make([]domain.Page, 0, len(ids))
	for _, pid := range ids {
		out = append(out, clonePage(g.pages[story][pid]))
	}
	return out, nil
}

func clonePage(p domain.Page) domain.Page {
	c := p
	c.Links = append([]domain.Link(nil), p.Links...)
	return c
}
