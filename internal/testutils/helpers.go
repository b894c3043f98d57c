package testutils

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/adapters/fs"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	// Ensuring it is absolute is safe.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SavePages writes page documents into a story directory of the repository.
// Keys are page IDs, values are full document contents (frontmatter included).
func SavePages(t *testing.T, repo core.Repository, story string, pages map[string]string) {
	t.Helper()
	ctx := context.Background()

	for id, content := range pages {
		// Save expects frontmatter split out into Metadata: it caches the
		// Metadata field as-is, and List serves documents from that cache.
		parsed, err := fs.ParseDocument(strings.NewReader(content), ".md", "")
		require.NoError(t, err, "Failed to parse page %s/%s", story, id)

		doc := core.Document{
			ID:       fmt.Sprintf("%s/%s.md", story, id),
			Content:  parsed.Content,
			Metadata: parsed.Metadata,
		}
		require.NoError(t, repo.Save(ctx, doc), "Failed to save page %s/%s", story, id)
	}
}

// CaveStory is a three-page fixture with one branch: start links to tunnel
// and ledge, tunnel links to lake.
func CaveStory(t *testing.T, repo core.Repository) {
	t.Helper()
	SavePages(t, repo, "cave", map[string]string{
		"start": `---
title: The Cave Mouth
root: true
links:
  - to: tunnel
    label: Crawl into the tunnel
  - to: ledge
    label: Climb the ledge
---
A cold wind blows from the dark.`,
		"tunnel": `---
title: The Tunnel
links:
  - to: lake
    label: Follow the water sound
---
The walls narrow around you.`,
		"ledge": `---
title: The Ledge
---
The view stretches for miles. There is no way further up.`,
		"lake": `---
title: The Underground Lake
---
Still water, black as ink.`,
	})
}
