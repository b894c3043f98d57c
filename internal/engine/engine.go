package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Engine applies visits to a reader's history collection.
//
// It is pure: Apply never mutates its input and touches no ambient state.
// Time and identifier generation are injected so outcomes are reproducible
// in tests.
type Engine struct {
	clock func() time.Time
	newID func() string
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.clock = fn
	}
}

// WithIDFunc overrides record identifier generation.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New creates an engine with real time and ULID identifiers.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock: time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of applying one visit.
type Result struct {
	// Histories is the collection after the visit. When Changed is false
	// it aliases the input untouched.
	Histories []domain.History

	// Active is the position of the record the reader now stands on,
	// -1 when nothing was recorded.
	Active int

	// ActiveID is the stable identifier of the active record.
	ActiveID string

	// Op names what happened.
	Op domain.PathOp

	// Appended lists pages added to the active record.
	Appended []domain.PageID

	// Absorbed lists record IDs removed by the merge pass.
	Absorbed []string

	// Changed reports whether the collection must be persisted.
	Changed bool
}

// Apply runs one visit against the collection and returns the new collection.
// Preview and guest visits pass through untouched.
func (e *Engine) Apply(histories []domain.History, v domain.Visit) Result {
	if !v.Recorded() {
		return Result{Histories: histories, Active: -1, Op: domain.OpNone}
	}

	if v.Kind == domain.VisitLinked {
		return e.applyLinked(histories, v)
	}
	return e.applyFresh(histories, v)
}

// applyFresh handles root and external arrivals: find or create a
// single-page record for the destination.
func (e *Engine) applyFresh(histories []domain.History, v domain.Visit) Result {
	now := e.clock()

	for i, h := range histories {
		if h.Story == v.Story && len(h.Pages) == 1 && h.Pages[0] == v.Page {
			out := domain.CloneAll(histories)
			out[i].LastUpdated = now
			return Result{
				Histories: out,
				Active:    i,
				ActiveID:  out[i].ID,
				Op:        domain.OpResumed,
				Changed:   true,
			}
		}
	}

	out := append(domain.CloneAll(histories), domain.NewHistory(e.newID(), v.Story, v.Page, now))
	idx := len(out) - 1
	return Result{
		Histories: out,
		Active:    idx,
		ActiveID:  out[idx].ID,
		Op:        domain.OpStarted,
		Appended:  []domain.PageID{v.Page},
		Changed:   true,
	}
}

// applyLinked handles visits that carry path context.
func (e *Engine) applyLinked(histories []domain.History, v domain.Visit) Result {
	// A stale or foreign reference degrades to a fresh start rather than
	// failing the visit.
	ref, ok := v.Ref()
	if !ok || ref < 0 || ref >= len(histories) || histories[ref].Story != v.Story {
		return e.applyFresh(histories, v)
	}

	now := e.clock()
	out := domain.CloneAll(histories)

	// Backward movement never rewrites the path.
	if !v.Forward {
		out[ref].LastUpdated = now
		return Result{
			Histories: out,
			Active:    ref,
			ActiveID:  out[ref].ID,
			Op:        domain.OpTouched,
			Changed:   true,
		}
	}

	h := out[ref]
	switch {
	case h.Contains(v.Page):
		// Replay: the page is already on the path, wherever it sits.
		out[ref].LastUpdated = now
		return Result{
			Histories: out,
			Active:    ref,
			ActiveID:  out[ref].ID,
			Op:        domain.OpReplayed,
			Changed:   true,
		}

	case h.Tip() == v.Prev:
		// Extension: straight continuation from the tip.
		out[ref].Pages = append(out[ref].Pages, v.Page)
		out[ref].LastUpdated = now
		res := Result{
			Histories: out,
			Active:    ref,
			ActiveID:  out[ref].ID,
			Op:        domain.OpExtended,
			Appended:  []domain.PageID{v.Page},
			Changed:   true,
		}
		return e.merge(res, now)

	default:
		// Fork: copy the prefix up to and including Prev into a new record,
		// then step onto the destination. The original record stays intact.
		// When Prev is not on the path the whole path is carried over.
		fork := domain.History{ID: e.newID(), Story: v.Story, LastUpdated: now}
		for _, p := range h.Pages {
			fork.Pages = append(fork.Pages, p)
			if p == v.Prev {
				break
			}
		}
		fork.Pages = append(fork.Pages, v.Page)
		out = append(out, fork)
		idx := len(out) - 1
		res := Result{
			Histories: out,
			Active:    idx,
			ActiveID:  fork.ID,
			Op:        domain.OpForked,
			Appended:  append([]domain.PageID(nil), fork.Pages...),
			Changed:   true,
		}
		return e.merge(res, now)
	}
}

// merge collapses records covering the same story and exact page sequence.
// It rebuilds the collection in one pass: the earliest record of each
// equivalence class survives, absorbed records refresh the survivor's
// timestamp, and the active reference is retargeted to the survivor.
func (e *Engine) merge(res Result, now time.Time) Result {
	seen := make(map[string]int, len(res.Histories))
	rebuilt := make([]domain.History, 0, len(res.Histories))
	active := -1
	var absorbed []string

	for i, h := range res.Histories {
		key := signature(h)
		if j, ok := seen[key]; ok {
			rebuilt[j].LastUpdated = now
			absorbed = append(absorbed, h.ID)
			if i == res.Active {
				active = j
			}
			continue
		}
		seen[key] = len(rebuilt)
		if i == res.Active {
			active = len(rebuilt)
		}
		rebuilt = append(rebuilt, h)
	}

	res.Histories = rebuilt
	res.Active = active
	if active >= 0 {
		res.ActiveID = rebuilt[active].ID
	}
	res.Absorbed = absorbed
	return res
}

// signature builds the merge key: story plus the page sequence. Every
// element is length-prefixed so that page IDs, which are opaque strings,
// can never run together into the key of a different sequence.
func signature(h domain.History) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(h.Story)))
	sb.WriteByte(':')
	sb.WriteString(string(h.Story))
	for _, p := range h.Pages {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(len(p)))
		sb.WriteByte(':')
		sb.WriteString(string(p))
	}
	return sb.String()
}

// MostRecent returns the position of the record with the latest LastUpdated,
// the resume target for "continue where you left off". Earlier positions win
// ties. The boolean is false for an empty collection.
func (e *Engine) MostRecent(histories []domain.History) (int, bool) {
	best := -1
	for i, h := range histories {
		if best == -1 || h.LastUpdated.After(histories[best].LastUpdated) {
			best = i
		}
	}
	return best, best != -1
}
