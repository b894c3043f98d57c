package dsl

import "github.com/seranno/wayfarer/pkg/domain"

// PageBuilder provides a fluent API for configuring a page.
type PageBuilder struct {
	page    domain.Page
	builder *Builder
}

// Title sets the human-readable heading of the page.
func (p *PageBuilder) Title(title string) *PageBuilder {
	p.page.Title = title
	return p
}

// Body sets the page content as Markdown.
func (p *PageBuilder) Body(body string) *PageBuilder {
	p.page.Body = body
	return p
}

// Root marks the page as the story's entry point.
// Exactly one page per story must carry it.
func (p *PageBuilder) Root() *PageBuilder {
	p.page.Root = true
	return p
}

// Choice adds a labeled outgoing link to the target page.
func (p *PageBuilder) Choice(target domain.PageID, label string) *PageBuilder {
	p.page.Links = append(p.page.Links, domain.Link{
		To:    target,
		Label: label,
	})
	return p
}

// Go adds an unlabeled link to the target page. The link label falls back
// to the target page's title at display time.
func (p *PageBuilder) Go(target domain.PageID) *PageBuilder {
	p.page.Links = append(p.page.Links, domain.Link{To: target})
	return p
}

// Build returns the underlying domain.Page.
// This is primarily used by the Builder, but exposed for advanced usage.
func (p *PageBuilder) Build() domain.Page {
	return p.page
}
