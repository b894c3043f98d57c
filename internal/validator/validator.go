package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports"
)

// Report collects the findings of one story validation pass.
type Report struct {
	// BrokenLinks are edges whose target page does not exist, as
	// "from -> to" pairs.
	BrokenLinks []string

	// Unreachable are pages no walk from the root can arrive at.
	Unreachable []domain.PageID
}

// Err returns an error summarizing broken links; unreachable pages are
// warnings, not failures.
func (r *Report) Err() error {
	if len(r.BrokenLinks) == 0 {
		return nil
	}
	return fmt.Errorf("found %d broken links:\n- %s", len(r.BrokenLinks), strings.Join(r.BrokenLinks, "\n- "))
}

// ValidateStory crawls the story graph from its root and reports broken
// links and unreachable pages.
func ValidateStory(ctx context.Context, graph ports.StoryGraph, story domain.StoryID) (*Report, error) {
	root, err := graph.Root(ctx, story)
	if err != nil {
		return nil, fmt.Errorf("root of story '%s' not resolvable: %w", story, err)
	}

	pages, err := graph.Pages(ctx, story)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages of '%s': %w", story, err)
	}

	links := make(map[domain.PageID][]domain.PageID, len(pages))
	exists := make(map[domain.PageID]bool, len(pages))
	for _, p := range pages {
		exists[p.ID] = true
		for _, l := range p.Links {
			links[p.ID] = append(links[p.ID], l.To)
		}
	}

	report := &Report{}

	// Breadth-first crawl from the root.
	visited := make(map[domain.PageID]bool)
	queue := []domain.PageID{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, target := range links[current] {
			if !exists[target] {
				report.BrokenLinks = append(report.BrokenLinks, fmt.Sprintf("%s -> %s", current, target))
				continue
			}
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, p := range pages {
		if !visited[p.ID] {
			report.Unreachable = append(report.Unreachable, p.ID)
		}
	}

	return report, nil
}
