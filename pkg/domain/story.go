package domain

// StoryID identifies a story graph.
type StoryID string

// PageID identifies a page within a story.
type PageID string

// Link is a forward edge from one page to another within the same story.
type Link struct {
	// To is the identifier of the target page.
	To PageID `json:"to" yaml:"to"`

	// Label is the display text for the choice. Falls back to the target
	// page title when empty.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Page represents a point in a story graph.
type Page struct {
	// ID is unique within the story.
	ID PageID `json:"id"`

	// Story is the graph this page belongs to.
	Story StoryID `json:"story"`

	// Title is the human-readable heading.
	Title string `json:"title,omitempty"`

	// Body holds the page content as Markdown.
	Body string `json:"body,omitempty"`

	// Links are the outgoing choices. A page with no links is an ending.
	Links []Link `json:"links,omitempty"`

	// Root marks the designated entry page of the story.
	Root bool `json:"root,omitempty"`
}

// Ending reports whether the page has no outgoing links.
func (p *Page) Ending() bool {
	return len(p.Links) == 0
}

// DisplayTitle returns the title, falling back to the page ID.
func (p *Page) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return string(p.ID)
}

// Story describes a narrative graph and its entry point.
type Story struct {
	ID    StoryID `json:"id"`
	Title string  `json:"title,omitempty"`

	// Root is the entry page every front-door visit resolves to.
	Root PageID `json:"root"`

	// PageCount is informational; pages are loaded individually.
	PageCount int `json:"page_count,omitempty"`
}
