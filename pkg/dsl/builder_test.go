package dsl

import (
	"context"
	"testing"
)

func TestBuilder_SimpleStory(t *testing.T) {
	// 1. Build the graph using DSL
	b := Story("cave")

	b.Page("start").
		Title("The Cave Mouth").
		Body("A cold wind blows from the dark.").
		Root().
		Choice("tunnel", "Crawl into the tunnel").
		Choice("ledge", "Climb the ledge")

	b.Page("tunnel").
		Title("The Tunnel").
		Go("lake")

	b.Page("ledge").
		Title("The Ledge")

	b.Page("lake").
		Title("The Underground Lake")

	// 2. Compile to Graph
	graph, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	ctx := context.Background()

	// 3. Verify story summary
	story, err := graph.Story(ctx, "cave")
	if err != nil {
		t.Fatalf("Story() failed: %v", err)
	}
	if story.Root != "start" {
		t.Errorf("Expected root 'start', got '%s'", story.Root)
	}
	if story.PageCount != 4 {
		t.Errorf("Expected 4 pages, got %d", story.PageCount)
	}

	// 4. Verify specific pages
	start, err := graph.Page(ctx, "cave", "start")
	if err != nil {
		t.Fatalf("Page('start') failed: %v", err)
	}
	if start.Body != "A cold wind blows from the dark." {
		t.Errorf("Unexpected body: %q", start.Body)
	}
	if len(start.Links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(start.Links))
	}
	if start.Links[0].To != "tunnel" || start.Links[0].Label != "Crawl into the tunnel" {
		t.Errorf("Unexpected first link: %+v", start.Links[0])
	}

	tunnel, err := graph.Page(ctx, "cave", "tunnel")
	if err != nil {
		t.Fatalf("Page('tunnel') failed: %v", err)
	}
	if len(tunnel.Links) != 1 || tunnel.Links[0].To != "lake" {
		t.Errorf("Expected unlabeled link to 'lake', got %+v", tunnel.Links)
	}
	if tunnel.Links[0].Label != "" {
		t.Errorf("Go() links carry no label, got %q", tunnel.Links[0].Label)
	}

	ledge, err := graph.Page(ctx, "cave", "ledge")
	if err != nil {
		t.Fatalf("Page('ledge') failed: %v", err)
	}
	if !ledge.Ending() {
		t.Error("Expected 'ledge' to be an ending")
	}
}

func TestBuilder_PageIsIdempotent(t *testing.T) {
	b := Story("cave")
	b.Page("start").Root().Title("First")
	b.Page("start").Body("Added later.")

	pages := b.Pages()
	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if pages[0].Title != "First" || pages[0].Body != "Added later." {
		t.Errorf("Page() must return the existing builder: %+v", pages[0])
	}
}

func TestBuildAll_MergesStories(t *testing.T) {
	cave := Story("cave")
	cave.Page("start").Root().Title("Cave")

	forest := Story("forest")
	forest.Page("gate").Root().Title("Forest")

	graph, err := BuildAll(cave, forest)
	if err != nil {
		t.Fatalf("BuildAll() failed: %v", err)
	}

	stories, err := graph.Stories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 2 {
		t.Errorf("Expected 2 stories, got %d", len(stories))
	}
}

func TestBuilder_MissingRootFails(t *testing.T) {
	b := Story("cave")
	b.Page("start").Title("No root flag")

	if _, err := b.Build(); err == nil {
		t.Error("Expected Build() to fail for a story with no root page")
	}
}
