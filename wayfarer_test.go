package wayfarer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/pkg/adapters/memory"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/dsl"
)

// diamond is a story with two routes from start to end:
// start -> p -> end and start -> q -> end.
func diamond(t *testing.T) *memory.Graph {
	t.Helper()
	b := dsl.Story("diamond")
	b.Page("start").Title("Start").Root().
		Choice("p", "Left").
		Choice("q", "Right")
	b.Page("p").Title("P").Go("end")
	b.Page("q").Title("Q").Go("end")
	b.Page("end").Title("End")
	graph, err := b.Build()
	require.NoError(t, err)
	return graph
}

func newService(t *testing.T, opts ...wayfarer.Option) *wayfarer.Service {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	opts = append([]wayfarer.Option{
		wayfarer.WithGraph(diamond(t)),
		wayfarer.WithStore(memory.NewStore()),
		wayfarer.WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	}, opts...)
	svc, err := wayfarer.New("", opts...)
	require.NoError(t, err)
	return svc
}

func linked(page, prev domain.PageID, ref int) domain.Visit {
	return domain.Visit{
		Kind:       domain.VisitLinked,
		Story:      "diamond",
		Page:       page,
		Prev:       prev,
		HistoryRef: &ref,
		Forward:    true,
	}
}

func TestService_ForkAndMergeJourney(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// Open the story.
	res, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	assert.Equal(t, domain.OpStarted, res.Op)
	assert.Equal(t, 0, res.HistoryID)
	assert.Nil(t, res.Back)

	// Walk the left route.
	res, err = svc.Visit(ctx, "anne", linked("p", "start", 0))
	require.NoError(t, err)
	assert.Equal(t, domain.OpExtended, res.Op)
	require.NotNil(t, res.Back)
	assert.Equal(t, domain.PageID("start"), res.Back.ID)

	// Diverge from the middle of the record: right route forks.
	res, err = svc.Visit(ctx, "anne", linked("q", "start", 0))
	require.NoError(t, err)
	assert.Equal(t, domain.OpForked, res.Op)
	assert.Equal(t, 1, res.HistoryID)

	forkKey := res.HistoryKey

	res, err = svc.Visit(ctx, "anne", linked("end", "q", 1))
	require.NoError(t, err)
	assert.Equal(t, domain.OpExtended, res.Op)

	histories, err := svc.Histories(ctx, "anne")
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, []domain.PageID{"start", "p"}, histories[0].Pages)
	assert.Equal(t, []domain.PageID{"start", "q", "end"}, histories[1].Pages)

	// Retrace the right route on a fresh record; reaching the end makes it
	// identical to the fork, and the merge pass absorbs the newcomer.
	res, err = svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	assert.Equal(t, domain.OpStarted, res.Op)
	assert.Equal(t, 2, res.HistoryID)

	newKey := res.HistoryKey

	res, err = svc.Visit(ctx, "anne", linked("q", "start", 2))
	require.NoError(t, err)
	assert.Equal(t, domain.OpExtended, res.Op)

	res, err = svc.Visit(ctx, "anne", linked("end", "q", 2))
	require.NoError(t, err)
	assert.Equal(t, domain.OpExtended, res.Op)
	assert.Equal(t, []string{newKey}, res.Absorbed, "the earlier record survives")
	assert.Equal(t, forkKey, res.HistoryKey, "active reference retargets to the survivor")
	assert.Equal(t, 1, res.HistoryID)

	histories, err = svc.Histories(ctx, "anne")
	require.NoError(t, err)
	require.Len(t, histories, 2)
}

func TestService_InvalidReferenceDegradesToFreshStart(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Visit(ctx, "anne", linked("q", "start", 7))
	require.NoError(t, err)
	assert.Equal(t, domain.OpStarted, res.Op, "stale reference starts a fresh record")

	histories, err := svc.Histories(ctx, "anne")
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, []domain.PageID{"q"}, histories[0].Pages)
}

func TestService_RootVisitIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	assert.Equal(t, domain.OpStarted, first.Op)

	second, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	assert.Equal(t, domain.OpResumed, second.Op)
	assert.Equal(t, first.HistoryKey, second.HistoryKey)

	histories, err := svc.Histories(ctx, "anne")
	require.NoError(t, err)
	assert.Len(t, histories, 1)
}

func TestService_GuestAndPreviewRecordNothing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Visit(ctx, "", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	assert.Equal(t, domain.OpNone, res.Op)
	assert.True(t, res.Guest)
	assert.Equal(t, -1, res.HistoryID)
	require.NotNil(t, res.Page, "the page is still served")

	res, err = svc.Visit(ctx, "anne", domain.Visit{
		Kind: domain.VisitRoot, Story: "diamond", Preview: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OpNone, res.Op)
	assert.True(t, res.Preview)

	readers, err := svc.Readers(ctx)
	require.NoError(t, err)
	assert.Empty(t, readers)
}

func TestService_Continue(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, ok, err := svc.Continue(ctx, "anne")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	_, err = svc.Visit(ctx, "anne", linked("p", "start", 0))
	require.NoError(t, err)

	target, ok, err := svc.Continue(ctx, "anne")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StoryID("diamond"), target.Story)
	assert.Equal(t, domain.PageID("p"), target.Page)
	assert.Equal(t, 0, target.HistoryID)

	_, _, err = svc.Continue(ctx, "")
	assert.ErrorIs(t, err, domain.ErrReaderRequired)
}

func TestService_BackwardMovementOnlyTouches(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	_, err = svc.Visit(ctx, "anne", linked("p", "start", 0))
	require.NoError(t, err)

	ref := 0
	res, err := svc.Visit(ctx, "anne", domain.Visit{
		Kind:       domain.VisitLinked,
		Story:      "diamond",
		Page:       "start",
		Prev:       "p",
		HistoryRef: &ref,
		Forward:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OpTouched, res.Op)

	histories, err := svc.Histories(ctx, "anne")
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, []domain.PageID{"start", "p"}, histories[0].Pages)
}

func TestService_UnknownStoryAndPage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "nope"})
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)

	_, err = svc.Visit(ctx, "anne", domain.Visit{
		Kind:  domain.VisitExternal,
		Story: "diamond",
		Page:  "nope",
	})
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}

func TestService_LifecycleHooksFire(t *testing.T) {
	var visits []domain.PathOp
	var merges int

	hooks := domain.LifecycleHooks{
		OnVisit: func(ctx context.Context, e *domain.VisitEvent) {
			visits = append(visits, e.Op)
		},
		OnMerge: func(ctx context.Context, e *domain.MergeEvent) {
			merges++
		},
	}
	svc := newService(t, wayfarer.WithLifecycleHooks(hooks))
	ctx := context.Background()

	_, err := svc.Visit(ctx, "anne", domain.Visit{Kind: domain.VisitRoot, Story: "diamond"})
	require.NoError(t, err)
	_, err = svc.Visit(ctx, "anne", linked("p", "start", 0))
	require.NoError(t, err)

	assert.Equal(t, []domain.PathOp{domain.OpStarted, domain.OpExtended}, visits)
	assert.Zero(t, merges)
}
