package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seranno/wayfarer"
	wayhttp "github.com/seranno/wayfarer/pkg/adapters/http"
	"github.com/seranno/wayfarer/pkg/adapters/memory"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/dsl"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	b := dsl.Story("cave")
	b.Page("start").Title("The Cave Mouth").Root().
		Choice("tunnel", "Step inside").
		Choice("ledge", "Climb the ledge")
	b.Page("tunnel").Title("The Tunnel").Body("The tunnel narrows.").Go("lake")
	b.Page("ledge").Title("The Ledge")
	b.Page("lake").Title("The Lake")
	graph, err := b.Build()
	require.NoError(t, err)

	svc, err := wayfarer.New("",
		wayfarer.WithGraph(graph),
		wayfarer.WithStore(memory.NewStore()),
		wayfarer.WithActivityLog(memory.NewActivityLog()),
		wayfarer.WithFavorites(memory.NewFavoriteStore()),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(wayhttp.NewHandler(svc))
	t.Cleanup(ts.Close)
	return ts
}

func doVisit(t *testing.T, ts *httptest.Server, reader string, body map[string]any) map[string]any {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/stories/cave/visit", bytes.NewReader(payload))
	require.NoError(t, err)
	if reader != "" {
		req.Header.Set(wayhttp.ReaderHeader, reader)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListStories(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/stories")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stories []domain.Story
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stories))
	require.Len(t, stories, 1)
	assert.Equal(t, domain.StoryID("cave"), stories[0].ID)
	assert.Equal(t, domain.PageID("start"), stories[0].Root)
}

func TestGetPage_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/stories/cave/pages/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/stories/nope/pages/start")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVisit_RootThenLink(t *testing.T) {
	ts := newTestServer(t)

	result := doVisit(t, ts, "anne", map[string]any{})
	assert.Equal(t, "started", result["op"])
	assert.Equal(t, float64(0), result["historyId"])
	page := result["page"].(map[string]any)
	assert.Equal(t, "start", page["id"])

	result = doVisit(t, ts, "anne", map[string]any{
		"page": "tunnel", "prev": "start", "historyId": 0, "forward": true,
	})
	assert.Equal(t, "extended", result["op"])
	back := result["back"].(map[string]any)
	assert.Equal(t, "start", back["id"])
	assert.Equal(t, "The Cave Mouth", back["title"])
}

func TestVisit_GuestRecordsNothing(t *testing.T) {
	ts := newTestServer(t)

	result := doVisit(t, ts, "", map[string]any{"page": "tunnel", "prev": "start", "forward": true})
	assert.Equal(t, "none", result["op"])
	assert.Equal(t, true, result["guest"])

	resp, err := http.Get(ts.URL + "/api/v1/readers/anne/histories")
	require.NoError(t, err)
	defer resp.Body.Close()
	var histories []domain.History
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&histories))
	assert.Empty(t, histories)
}

// brokenStore refuses every write. Reads behave like an empty store.
type brokenStore struct{}

func (brokenStore) Load(context.Context, string) ([]domain.History, error) { return nil, nil }
func (brokenStore) Save(context.Context, string, []domain.History) error {
	return fmt.Errorf("disk full")
}
func (brokenStore) Delete(context.Context, string) error      { return fmt.Errorf("disk full") }
func (brokenStore) Readers(context.Context) ([]string, error) { return nil, nil }

func TestVisit_StoreFailureIsNotCommitted(t *testing.T) {
	b := dsl.Story("cave")
	b.Page("start").Title("The Cave Mouth").Root()
	graph, err := b.Build()
	require.NoError(t, err)

	svc, err := wayfarer.New("",
		wayfarer.WithGraph(graph),
		wayfarer.WithStore(brokenStore{}),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(wayhttp.NewHandler(svc))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/stories/cave/visit", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set(wayhttp.ReaderHeader, "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "visit not committed", body["error"])
}

func TestVisit_UnknownStory(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/stories/nope/visit", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set(wayhttp.ReaderHeader, "anne")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContinue(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/readers/anne/continue")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "nothing recorded yet")

	doVisit(t, ts, "anne", map[string]any{})
	doVisit(t, ts, "anne", map[string]any{"page": "tunnel", "prev": "start", "historyId": 0, "forward": true})

	resp, err = http.Get(ts.URL + "/api/v1/readers/anne/continue")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var target wayfarer.ResumeTarget
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&target))
	assert.Equal(t, domain.StoryID("cave"), target.Story)
	assert.Equal(t, domain.PageID("tunnel"), target.Page)
}

func TestActivityFeed(t *testing.T) {
	ts := newTestServer(t)

	doVisit(t, ts, "anne", map[string]any{})
	doVisit(t, ts, "anne", map[string]any{"page": "tunnel", "prev": "start", "historyId": 0, "forward": true})

	resp, err := http.Get(ts.URL + "/api/v1/readers/anne/activity?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []domain.ActivityRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, domain.PageID("tunnel"), records[0].Page, "most recent first")
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t)
	client := http.DefaultClient

	put, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/readers/anne/favorites/cave/ledge", nil)
	require.NoError(t, err)
	resp, err := client.Do(put)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/readers/anne/favorites")
	require.NoError(t, err)
	defer resp.Body.Close()
	var favs []domain.Favorite
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&favs))
	require.Len(t, favs, 1)
	assert.Equal(t, domain.Favorite{Story: "cave", Page: "ledge"}, favs[0])

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/readers/anne/favorites/cave/ledge", nil)
	require.NoError(t, err)
	resp, err = client.Do(del)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	put, err = http.NewRequest(http.MethodPut, ts.URL+"/api/v1/readers/anne/favorites/cave/nope", nil)
	require.NoError(t, err)
	resp, err = client.Do(put)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "cannot star a missing page")
}

func TestDeleteHistories(t *testing.T) {
	ts := newTestServer(t)

	doVisit(t, ts, "anne", map[string]any{})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/readers/anne/histories", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/readers/anne/histories")
	require.NoError(t, err)
	defer resp.Body.Close()
	var histories []domain.History
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&histories))
	assert.Empty(t, histories)
}

func TestSubscribeEvents(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/readers/anne/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping", strings.TrimSpace(line))

	// Drain the rest of the ping frame.
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) == "" {
			break
		}
	}

	done := make(chan domain.HistoryUpdate, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				var update domain.HistoryUpdate
				if json.Unmarshal([]byte(data), &update) == nil {
					done <- update
					return
				}
			}
		}
	}()

	doVisit(t, ts, "anne", map[string]any{})

	select {
	case update := <-done:
		assert.Equal(t, "anne", update.Reader)
		assert.Equal(t, domain.StoryID("cave"), update.Story)
		assert.Equal(t, domain.OpStarted, update.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("no history update received over SSE")
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, fmt.Sprintf("%s/api/v1/stories", ts.URL), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
