package domain

import "time"

// History is one reader's recorded path through a single story.
//
// Pages is ordered oldest to newest and never contains the same page twice:
// revisits refresh LastUpdated instead of appending, and divergence forks a
// new record. The final element is the tip, the page the path currently
// stands on.
type History struct {
	// ID is a stable ULID assigned at creation. Positions in a reader's
	// collection shift when duplicate records merge away; the ID never does.
	ID string `json:"id"`

	// Story is the graph this path runs through.
	Story StoryID `json:"story"`

	// Pages is the ordered walk, oldest first.
	Pages []PageID `json:"pages"`

	// LastUpdated orders records for "continue where you left off".
	LastUpdated time.Time `json:"last_updated"`
}

// NewHistory creates a single-page record rooted at page.
func NewHistory(id string, story StoryID, page PageID, now time.Time) History {
	return History{
		ID:          id,
		Story:       story,
		Pages:       []PageID{page},
		LastUpdated: now,
	}
}

// Tip returns the most recent page of the path, or "" for an empty record.
func (h History) Tip() PageID {
	if len(h.Pages) == 0 {
		return ""
	}
	return h.Pages[len(h.Pages)-1]
}

// Contains reports whether page appears anywhere in the path.
func (h History) Contains(page PageID) bool {
	for _, p := range h.Pages {
		if p == page {
			return true
		}
	}
	return false
}

// Back returns the page immediately preceding page in the path.
// The boolean is false when page is the first element or not on the path.
func (h History) Back(page PageID) (PageID, bool) {
	for i, p := range h.Pages {
		if p == page {
			if i == 0 {
				return "", false
			}
			return h.Pages[i-1], true
		}
	}
	return "", false
}

// Equivalent reports whether two records cover the same story and the exact
// same page sequence. IDs and timestamps are ignored; this is the merge
// criterion for duplicate paths.
func (h History) Equivalent(o History) bool {
	if h.Story != o.Story || len(h.Pages) != len(o.Pages) {
		return false
	}
	for i := range h.Pages {
		if h.Pages[i] != o.Pages[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; the Pages slice is not shared.
func (h History) Clone() History {
	c := h
	c.Pages = make([]PageID, len(h.Pages))
	copy(c.Pages, h.Pages)
	return c
}

// CloneAll deep-copies a collection.
func CloneAll(hs []History) []History {
	if hs == nil {
		return nil
	}
	out := make([]History, len(hs))
	for i, h := range hs {
		out[i] = h.Clone()
	}
	return out
}
