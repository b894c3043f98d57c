package ports

import (
	"context"

	"github.com/seranno/wayfarer/pkg/domain"
)

// StoryGraph defines how the engine retrieves story and page definitions.
// This allows the storage layer (Loam, Memory) to be decoupled.
type StoryGraph interface {
	// Stories lists every story available in the graph source.
	Stories(ctx context.Context) ([]domain.Story, error)

	// Story retrieves a story summary by ID.
	// Returns domain.ErrStoryNotFound if the story does not exist.
	Story(ctx context.Context, id domain.StoryID) (*domain.Story, error)

	// Root resolves the designated entry page of a story.
	Root(ctx context.Context, id domain.StoryID) (domain.PageID, error)

	// Page retrieves a full page definition.
	// Returns domain.ErrPageNotFound if the page does not exist in the story.
	Page(ctx context.Context, story domain.StoryID, page domain.PageID) (*domain.Page, error)

	// PageExists reports whether a page exists without loading its body.
	PageExists(ctx context.Context, story domain.StoryID, page domain.PageID) (bool, error)

	// Pages lists all pages of a story. This is used for introspection and
	// visualization tools (e.g. 'wayfarer story graph').
	Pages(ctx context.Context, story domain.StoryID) ([]domain.Page, error)
}
