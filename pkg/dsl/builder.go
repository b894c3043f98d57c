package dsl

import (
	"fmt"

	"github.com/seranno/wayfarer/pkg/adapters/memory"
	"github.com/seranno/wayfarer/pkg/domain"
)

// Builder manages the construction of one story graph.
type Builder struct {
	story domain.StoryID
	pages map[domain.PageID]*PageBuilder
	order []domain.PageID
}

// Story creates a new builder for the given story ID.
func Story(id domain.StoryID) *Builder {
	return &Builder{
		story: id,
		pages: make(map[domain.PageID]*PageBuilder),
	}
}

// Page creates a new page in the story.
// If the page already exists, it returns the existing builder.
func (b *Builder) Page(id domain.PageID) *PageBuilder {
	if pb, ok := b.pages[id]; ok {
		return pb
	}
	pb := &PageBuilder{
		page: domain.Page{
			ID:    id,
			Story: b.story,
		},
		builder: b,
	}
	b.pages[id] = pb
	b.order = append(b.order, id)
	return pb
}

// Pages returns the built pages in declaration order.
func (b *Builder) Pages() []domain.Page {
	out := make([]domain.Page, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.pages[id].page)
	}
	return out
}

// Build compiles the story into a memory Graph.
func (b *Builder) Build() (*memory.Graph, error) {
	return BuildAll(b)
}

// BuildAll compiles several story builders into one memory Graph.
func BuildAll(builders ...*Builder) (*memory.Graph, error) {
	var pages []domain.Page
	for _, b := range builders {
		pages = append(pages, b.Pages()...)
	}

	graph, err := memory.NewFromPages(pages...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory graph: %w", err)
	}
	return graph, nil
}
