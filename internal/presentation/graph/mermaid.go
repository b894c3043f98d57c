package graph

import (
	"fmt"
	"strings"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Overlay contains path data to visualize on the story graph.
type Overlay struct {
	VisitedPages []domain.PageID
	CurrentPage  domain.PageID
}

// GenerateMermaid produces a Mermaid flowchart from a story's pages.
// It applies semantic styling:
// - Root page: ((Circle))
// - Ending page (no outgoing links): [[Subroutine]]
// - Default: [Rectangle]
// Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(pages []domain.Page, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, page := range pages {
		safeID := sanitizeMermaidID(string(page.ID))

		opener, closer := "[", "]"
		switch {
		case page.Root:
			opener, closer = "((", "))" // Circle
		case len(page.Links) == 0:
			opener, closer = "[[", "]]" // Ending
		}

		title := page.Title
		if title == "" {
			title = string(page.ID)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeMermaidLabel(title), closer))

		for _, link := range page.Links {
			safeTo := sanitizeMermaidID(string(link.To))

			arrow := "-->"
			if link.Label != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeMermaidLabel(link.Label))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedPages {
			safeID := sanitizeMermaidID(string(id))
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentPage != "" {
			safeCurrent := sanitizeMermaidID(string(overlay.CurrentPage))
			sb.WriteString(fmt.Sprintf("    class %s current;\n", safeCurrent))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
