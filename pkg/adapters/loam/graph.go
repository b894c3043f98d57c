package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Graph adapts a Loam repository to the ports.StoryGraph interface.
//
// The repository root holds one directory per story; every markdown
// document inside it is a page, its frontmatter decoded into PageMetadata.
// Document IDs therefore look like "cave/start.md": the first path segment
// names the story, the rest names the page.
type Graph struct {
	Repo *loam.TypedRepository[PageMetadata]
}

// New creates a new Loam graph adapter.
func New(repo *loam.TypedRepository[PageMetadata]) *Graph {
	return &Graph{Repo: repo}
}

type pageEntry struct {
	docID string
	meta  PageMetadata
}

type index struct {
	order   []domain.StoryID
	stories map[domain.StoryID]domain.Story
	pages   map[domain.StoryID]map[domain.PageID]pageEntry
	byStory map[domain.StoryID][]domain.PageID
}

// scan walks the repository and groups documents into stories. Loam is the
// source of truth; the index is rebuilt per call so edits to the story
// directory show up without a restart.
func (g *Graph) scan(ctx context.Context) (*index, error) {
	docs, err := g.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	idx := &index{
		stories: make(map[domain.StoryID]domain.Story),
		pages:   make(map[domain.StoryID]map[domain.PageID]pageEntry),
		byStory: make(map[domain.StoryID][]domain.PageID),
	}

	for _, doc := range docs {
		id := trimExtension(doc.ID)
		story, page, ok := splitPageID(id, doc.Data.ID)
		if !ok {
			// Top-level documents (README and the like) are not pages.
			continue
		}

		sp, seen := idx.pages[story]
		if !seen {
			sp = make(map[domain.PageID]pageEntry)
			idx.pages[story] = sp
			idx.order = append(idx.order, story)
		}
		if dup, exists := sp[page]; exists {
			return nil, fmt.Errorf("collision detected: page '%s/%s' is defined in both '%s' and '%s'", story, page, dup.docID, doc.ID)
		}
		sp[page] = pageEntry{docID: doc.ID, meta: doc.Data}
		idx.byStory[story] = append(idx.byStory[story], page)

		if doc.Data.Root {
			if existing, ok := idx.stories[story]; ok && existing.Root != "" {
				return nil, fmt.Errorf("story %s has multiple root pages: %s and %s", story, existing.Root, page)
			}
			idx.stories[story] = domain.Story{
				ID:    story,
				Title: doc.Data.Title,
				Root:  page,
			}
		}
	}

	for _, sid := range idx.order {
		s, ok := idx.stories[sid]
		if !ok {
			return nil, fmt.Errorf("story %s has no root page", sid)
		}
		s.PageCount = len(idx.byStory[sid])
		idx.stories[sid] = s
	}

	return idx, nil
}

// Stories lists every story directory with a summary.
func (g *Graph) Stories(ctx context.Context) ([]domain.Story, error) {
	idx, err := g.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Story, 0, len(idx.order))
	for _, sid := range idx.order {
		out = append(out, idx.stories[sid])
	}
	return out, nil
}

// Story retrieves one story summary.
func (g *Graph) Story(ctx context.Context, id domain.StoryID) (*domain.Story, error) {
	idx, err := g.scan(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := idx.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return &s, nil
}

// Root resolves the entry page of a story.
func (g *Graph) Root(ctx context.Context, id domain.StoryID) (domain.PageID, error) {
	s, err := g.Story(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Root, nil
}

// Page retrieves a full page, body included.
func (g *Graph) Page(ctx context.Context, story domain.StoryID, page domain.PageID) (*domain.Page, error) {
	idx, err := g.scan(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := idx.lookup(story, page)
	if err != nil {
		return nil, err
	}

	doc, err := g.Repo.Get(ctx, entry.docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", entry.docID, err)
	}

	p := buildPage(story, page, doc.Data)
	p.Body = doc.Content
	return p, nil
}

// PageExists reports page existence without loading the body.
func (g *Graph) PageExists(ctx context.Context, story domain.StoryID, page domain.PageID) (bool, error) {
	idx, err := g.scan(ctx)
	if err != nil {
		return false, err
	}
	sp, ok := idx.pages[story]
	if !ok {
		return false, nil
	}
	_, ok = sp[page]
	return ok, nil
}

// Pages lists all pages of a story, bodies omitted.
func (g *Graph) Pages(ctx context.Context, story domain.StoryID) ([]domain.Page, error) {
	idx, err := g.scan(ctx)
	if err != nil {
		return nil, err
	}
	ids, ok := idx.byStory[story]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, story)
	}
	out := make([]domain.Page, 0, len(ids))
	for _, pid := range ids {
		out = append(out, *buildPage(story, pid, idx.pages[story][pid].meta))
	}
	return out, nil
}

func (idx *index) lookup(story domain.StoryID, page domain.PageID) (pageEntry, error) {
	sp, ok := idx.pages[story]
	if !ok {
		return pageEntry{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, story)
	}
	entry, ok := sp[page]
	if !ok {
		return pageEntry{}, fmt.Errorf("%w: %s/%s", domain.ErrPageNotFound, story, page)
	}
	return entry, nil
}

func buildPage(story domain.StoryID, page domain.PageID, meta PageMetadata) *domain.Page {
	p := &domain.Page{
		ID:    page,
		Story: story,
		Title: meta.Title,
		Root:  meta.Root,
	}
	for _, l := range meta.Links {
		p.Links = append(p.Links, domain.Link{
			To:    domain.PageID(l.To),
			Label: l.Label,
		})
	}
	return p
}

// splitPageID derives (story, page) from a normalized document ID. The
// frontmatter ID wins when present; it must carry the same story-directory
// prefix form.
func splitPageID(docID, metaID string) (domain.StoryID, domain.PageID, bool) {
	id := docID
	if metaID != "" {
		id = trimExtension(metaID)
	}
	story, page, found := strings.Cut(id, "/")
	if !found || story == "" || page == "" {
		return "", "", false
	}
	return domain.StoryID(story), domain.PageID(page), true
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
