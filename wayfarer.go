package wayfarer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/oklog/ulid/v2"

	loamAdapter "github.com/seranno/wayfarer/pkg/adapters/loam"
	"github.com/seranno/wayfarer/pkg/adapters/memory"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/internal/engine"
	"github.com/seranno/wayfarer/pkg/ports"
	"github.com/seranno/wayfarer/pkg/session"
)

// Service is the high-level entry point for the Wayfarer library.
// It wires the path engine to a story graph and the reader-facing stores,
// and exposes the operations transports build on: visiting pages, listing
// histories, resuming, and favorites.
type Service struct {
	graph     ports.StoryGraph
	sessions  *session.Manager
	engine    *engine.Engine
	activity  ports.ActivityLog
	favorites ports.FavoriteStore
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
	Name      string
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithGraph injects a custom StoryGraph, bypassing the default Loam
// initialization.
func WithGraph(g ports.StoryGraph) Option {
	return func(s *Service) {
		s.graph = g
	}
}

// WithStore sets the history store. Defaults to an in-memory store.
func WithStore(store ports.HistoryStore) Option {
	return func(s *Service) {
		s.sessions = session.NewManager(store)
	}
}

// WithSessionManager injects a fully configured session manager, for
// deployments that need a distributed lock around the store.
func WithSessionManager(m *session.Manager) Option {
	return func(s *Service) {
		s.sessions = m
	}
}

// WithActivityLog enables the per-reader visit feed.
func WithActivityLog(log ports.ActivityLog) Option {
	return func(s *Service) {
		s.activity = log
	}
}

// WithFavorites enables the per-reader favorites set.
func WithFavorites(favs ports.FavoriteStore) Option {
	return func(s *Service) {
		s.favorites = favs
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		s.clock = fn
	}
}

// WithIDFunc overrides record identifier generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New initializes a Wayfarer Service.
// By default it reads stories from a Loam repository at the given path.
// If WithGraph is provided, storyDir can be empty and Loam is skipped.
func New(storyDir string, opts ...Option) (*Service, error) {
	svc := &Service{
		clock: time.Now,
		newID: func() string { return ulid.Make().String() },
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.graph == nil {
		if storyDir == "" {
			return nil, fmt.Errorf("storyDir is required when no custom graph is provided")
		}

		absPath, err := filepath.Abs(storyDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		svc.Name = filepath.Base(absPath)

		// ReadOnly keeps Loam out of its sandbox behavior; the service
		// never writes the graph. Strict mode normalizes frontmatter
		// numerics across the markdown/yaml adapters.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}

		typedRepo := loam.NewTypedRepository[loamAdapter.PageMetadata](repo)
		svc.graph = loamAdapter.New(typedRepo)
	} else if storyDir != "" {
		svc.Name = filepath.Base(storyDir)
	}

	if svc.sessions == nil {
		svc.sessions = session.NewManager(memory.NewStore())
	}

	if svc.logger == nil {
		svc.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if svc.Name != "" {
		svc.logger = svc.logger.With("library", svc.Name)
	}

	svc.engine = engine.New(
		engine.WithClock(svc.clock),
		engine.WithIDFunc(svc.newID),
	)

	return svc, nil
}

// PageRef names a page for navigation chrome (the Back button).
type PageRef struct {
	ID    domain.PageID `json:"id"`
	Title string        `json:"title,omitempty"`
}

// VisitResult is the settled outcome of one navigation event.
type VisitResult struct {
	// Page is the destination content.
	Page *domain.Page `json:"page"`

	// Back names the page immediately before the destination on the
	// active path, nil at the path's first page or when nothing was
	// recorded.
	Back *PageRef `json:"back,omitempty"`

	// HistoryID is the position of the active record. It is only valid
	// until the next recorded visit; merges shift positions. -1 when the
	// visit recorded nothing.
	HistoryID int `json:"historyId"`

	// HistoryKey is the stable identifier of the active record.
	HistoryKey string `json:"historyKey,omitempty"`

	// Op names the effect on the collection.
	Op domain.PathOp `json:"op"`

	// Appended lists pages added to the active record by this visit.
	Appended []domain.PageID `json:"appended,omitempty"`

	// Absorbed lists record IDs the merge pass removed.
	Absorbed []string `json:"absorbed,omitempty"`

	Favorited bool `json:"favorited"`
	Guest     bool `json:"guest"`
	Preview   bool `json:"preview"`
}

// Visit applies one navigation event for a reader.
//
// Story and page existence are checked against the graph before the engine
// runs. An empty readerID marks the visit as a guest visit: the page is
// still served but nothing is recorded. Store failures abort the visit;
// no partial result is committed.
func (s *Service) Visit(ctx context.Context, readerID string, v domain.Visit) (*VisitResult, error) {
	if readerID == "" {
		v.Guest = true
	}

	if _, err := s.graph.Story(ctx, v.Story); err != nil {
		return nil, err
	}

	if v.Kind == domain.VisitRoot || v.Page == "" {
		root, err := s.graph.Root(ctx, v.Story)
		if err != nil {
			return nil, err
		}
		v.Kind = domain.VisitRoot
		v.Page = root
	} else {
		ok, err := s.graph.PageExists(ctx, v.Story, v.Page)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrPageNotFound, v.Story, v.Page)
		}
	}

	page, err := s.graph.Page(ctx, v.Story, v.Page)
	if err != nil {
		return nil, err
	}

	result := &VisitResult{
		Page:      page,
		HistoryID: -1,
		Op:        domain.OpNone,
		Guest:     v.Guest,
		Preview:   v.Preview,
	}

	if v.Recorded() {
		var applied engine.Result
		err := s.sessions.Update(ctx, readerID, func(ctx context.Context, histories []domain.History) ([]domain.History, bool, error) {
			applied = s.engine.Apply(histories, v)
			return applied.Histories, applied.Changed, nil
		})
		if err != nil {
			return nil, fmt.Errorf("visit not committed: %w", err)
		}

		result.HistoryID = applied.Active
		result.HistoryKey = applied.ActiveID
		result.Op = applied.Op
		result.Appended = applied.Appended
		result.Absorbed = applied.Absorbed

		if applied.Active >= 0 {
			s.resolveBack(ctx, result, applied.Histories[applied.Active], v.Page)
		}

		s.recordActivity(ctx, readerID, v)
		s.fireHooks(ctx, readerID, v, applied)
	}

	if !v.Guest && s.favorites != nil {
		fav, err := s.favorites.IsFavorited(ctx, readerID, domain.Favorite{Story: v.Story, Page: v.Page})
		if err != nil {
			s.logger.Warn("favorite lookup failed", "reader", readerID, "err", err)
		} else {
			result.Favorited = fav
		}
	}

	return result, nil
}

// resolveBack fills the Back reference from the active record. Title
// lookup is cosmetic; a failed load degrades to the bare page ID.
func (s *Service) resolveBack(ctx context.Context, result *VisitResult, h domain.History, page domain.PageID) {
	back, ok := h.Back(page)
	if !ok {
		return
	}
	ref := &PageRef{ID: back}
	if bp, err := s.graph.Page(ctx, h.Story, back); err == nil {
		ref.Title = bp.Title
	}
	result.Back = ref
}

// recordActivity appends the visit to the reader's feed. The feed is an
// audit trail, not part of the path invariants: a failed append is logged
// and the visit still stands.
func (s *Service) recordActivity(ctx context.Context, readerID string, v domain.Visit) {
	if s.activity == nil {
		return
	}
	rec := domain.ActivityRecord{
		ID:        s.newID(),
		Timestamp: s.clock(),
		Story:     v.Story,
		Page:      v.Page,
	}
	if err := s.activity.Append(ctx, readerID, rec); err != nil {
		s.logger.Warn("activity append failed", "reader", readerID, "err", err)
	}
}

func (s *Service) fireHooks(ctx context.Context, readerID string, v domain.Visit, applied engine.Result) {
	if s.hooks.OnVisit != nil {
		s.hooks.OnVisit(ctx, &domain.VisitEvent{
			Timestamp: s.clock(),
			Reader:    readerID,
			Story:     v.Story,
			Page:      v.Page,
			Kind:      v.Kind,
			Op:        applied.Op,
			Histories: len(applied.Histories),
		})
	}
	if s.hooks.OnMerge != nil && len(applied.Absorbed) > 0 {
		s.hooks.OnMerge(ctx, &domain.MergeEvent{
			Timestamp: s.clock(),
			Reader:    readerID,
			Story:     v.Story,
			Survivor:  applied.ActiveID,
			Absorbed:  applied.Absorbed,
		})
	}
}

// Histories returns the reader's full collection.
func (s *Service) Histories(ctx context.Context, readerID string) ([]domain.History, error) {
	if readerID == "" {
		return nil, domain.ErrReaderRequired
	}
	return s.sessions.Load(ctx, readerID)
}

// ResumeTarget points at where a reader left off.
type ResumeTarget struct {
	Story      domain.StoryID `json:"story"`
	Page       domain.PageID  `json:"page"`
	HistoryID  int            `json:"historyId"`
	HistoryKey string         `json:"historyKey"`
	At         time.Time      `json:"at"`
}

// Continue resolves the reader's most recently updated record to a resume
// target. The boolean is false when the reader has no histories.
func (s *Service) Continue(ctx context.Context, readerID string) (*ResumeTarget, bool, error) {
	if readerID == "" {
		return nil, false, domain.ErrReaderRequired
	}
	histories, err := s.sessions.Load(ctx, readerID)
	if err != nil {
		return nil, false, err
	}
	idx, ok := s.engine.MostRecent(histories)
	if !ok {
		return nil, false, nil
	}
	h := histories[idx]
	return &ResumeTarget{
		Story:      h.Story,
		Page:       h.Tip(),
		HistoryID:  idx,
		HistoryKey: h.ID,
		At:         h.LastUpdated,
	}, true, nil
}

// Stories lists the available stories.
func (s *Service) Stories(ctx context.Context) ([]domain.Story, error) {
	return s.graph.Stories(ctx)
}

// Story returns one story summary.
func (s *Service) Story(ctx context.Context, id domain.StoryID) (*domain.Story, error) {
	return s.graph.Story(ctx, id)
}

// Page returns page content without touching any history. This is the
// read-only peek transports use for previews.
func (s *Service) Page(ctx context.Context, story domain.StoryID, page domain.PageID) (*domain.Page, error) {
	return s.graph.Page(ctx, story, page)
}

// Activity returns the reader's newest feed entries, most recent first.
func (s *Service) Activity(ctx context.Context, readerID string, limit int) ([]domain.ActivityRecord, error) {
	if s.activity == nil {
		return nil, nil
	}
	return s.activity.Recent(ctx, readerID, limit)
}

// AddFavorite stars a page for the reader.
func (s *Service) AddFavorite(ctx context.Context, readerID string, fav domain.Favorite) error {
	if s.favorites == nil {
		return fmt.Errorf("favorites not configured")
	}
	if ok, err := s.graph.PageExists(ctx, fav.Story, fav.Page); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s/%s", domain.ErrPageNotFound, fav.Story, fav.Page)
	}
	return s.favorites.Add(ctx, readerID, fav)
}

// RemoveFavorite unstars a page for the reader.
func (s *Service) RemoveFavorite(ctx context.Context, readerID string, fav domain.Favorite) error {
	if s.favorites == nil {
		return fmt.Errorf("favorites not configured")
	}
	return s.favorites.Remove(ctx, readerID, fav)
}

// Favorites lists the reader's starred pages.
func (s *Service) Favorites(ctx context.Context, readerID string) ([]domain.Favorite, error) {
	if s.favorites == nil {
		return nil, nil
	}
	return s.favorites.List(ctx, readerID)
}

// DeleteReader removes the reader's stored collection.
func (s *Service) DeleteReader(ctx context.Context, readerID string) error {
	return s.sessions.Delete(ctx, readerID)
}

// Readers lists every reader with a stored collection.
func (s *Service) Readers(ctx context.Context) ([]string, error) {
	return s.sessions.Readers(ctx)
}

// Graph returns the underlying StoryGraph used by the service.
func (s *Service) Graph() ports.StoryGraph {
	return s.graph
}
