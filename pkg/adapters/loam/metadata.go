package loam

// PageMetadata is the frontmatter header of a story page document.
// It uses "mapstructure" tags to match the YAML keys Loam decodes.
type PageMetadata struct {
	// ID overrides the document-derived page ID.
	ID string `json:"id" mapstructure:"id"`

	// Title is the human-readable page heading.
	Title string `json:"title" mapstructure:"title"`

	// Root marks the story's entry page. Exactly one page per story
	// directory must carry it.
	Root bool `json:"root" mapstructure:"root"`

	// Links are the outgoing choices, in display order.
	Links []PageLink `json:"links" mapstructure:"links"`
}

// PageLink is one outgoing edge in frontmatter form.
type PageLink struct {
	To    string `json:"to" mapstructure:"to"`
	Label string `json:"label" mapstructure:"label"`
}
