package domain

// VisitKind classifies how a reader arrived at a page.
type VisitKind string

const (
	// VisitRoot is an entry through the story's front door; the destination
	// is resolved to the story root.
	VisitRoot VisitKind = "root"

	// VisitLinked carries path context: the page navigated from and a
	// history reference echoed by the client.
	VisitLinked VisitKind = "linked"

	// VisitExternal is a direct arrival at an interior page with no path
	// context (bookmark, shared URL).
	VisitExternal VisitKind = "external"
)

// Visit is a single navigation event against one reader's collection.
type Visit struct {
	Kind  VisitKind
	Story StoryID

	// Page is the destination, already resolved against the story graph.
	Page PageID

	// Prev is the page the reader navigated from. Linked visits only.
	Prev PageID

	// HistoryRef is the client-echoed position of the record being extended,
	// nil when the client carries none. References are validated on apply;
	// a stale or foreign reference degrades to a fresh start.
	HistoryRef *int

	// Forward distinguishes onward movement from backtracking. Backward
	// visits only refresh LastUpdated.
	Forward bool

	// Preview renders the page without recording anything.
	Preview bool

	// Guest marks an anonymous reader; nothing is recorded.
	Guest bool
}

// Ref returns the history reference and whether one is present.
func (v Visit) Ref() (int, bool) {
	if v.HistoryRef == nil {
		return 0, false
	}
	return *v.HistoryRef, true
}

// Recorded reports whether the visit may change stored state.
func (v Visit) Recorded() bool {
	return !v.Preview && !v.Guest
}
