package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/spf13/cobra"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/internal/cli"
	"github.com/seranno/wayfarer/internal/presentation/graph"
	"github.com/seranno/wayfarer/internal/twine"
	"github.com/seranno/wayfarer/internal/validator"
	"github.com/seranno/wayfarer/pkg/domain"
)

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Inspect and manage the story repository",
}

var storyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openGraph(cmd)
		if err != nil {
			return err
		}

		stories, err := svc.Stories(cmd.Context())
		if err != nil {
			return err
		}
		if len(stories) == 0 {
			fmt.Println("No stories found.")
			return nil
		}
		for _, s := range stories {
			title := s.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%-20s %s (%d pages)\n", s.ID, title, s.PageCount)
		}
		return nil
	},
}

var storyShowCmd = &cobra.Command{
	Use:   "show <story>",
	Short: "Show a story's summary and pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openGraph(cmd)
		if err != nil {
			return err
		}

		story, err := svc.Story(cmd.Context(), domain.StoryID(args[0]))
		if err != nil {
			return err
		}
		pages, err := svc.Graph().Pages(cmd.Context(), story.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s - %s\n", story.ID, story.Title)
		fmt.Printf("root: %s\n\n", story.Root)
		for _, p := range pages {
			marker := " "
			if p.ID == story.Root {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s (%d links)\n", marker, p.ID, p.Title, len(p.Links))
		}
		return nil
	},
}

var storyGraphCmd = &cobra.Command{
	Use:   "graph <story>",
	Short: "Export a story as a Mermaid flowchart",
	Long: `Outputs a Mermaid diagram (graph TD) of the story's pages and choices.
With --reader, the reader's most recent path through the story is
highlighted on the chart.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storyID := domain.StoryID(args[0])
		readerID, _ := cmd.Flags().GetString("reader")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, closeStore, err := cli.BuildService(cfg, cli.QuietLogger(false))
		if err != nil {
			return err
		}
		defer closeStore()

		pages, err := svc.Graph().Pages(cmd.Context(), storyID)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if readerID != "" {
			overlay, err = buildOverlay(cmd.Context(), svc, readerID, storyID)
			if err != nil {
				return err
			}
		}

		fmt.Print(graph.GenerateMermaid(pages, overlay))
		return nil
	},
}

// buildOverlay highlights the reader's most recently updated path in the story.
func buildOverlay(ctx context.Context, svc *wayfarer.Service, readerID string, storyID domain.StoryID) (*graph.Overlay, error) {
	histories, err := svc.Histories(ctx, readerID)
	if err != nil {
		return nil, err
	}

	var best *domain.History
	for i := range histories {
		h := &histories[i]
		if h.Story != storyID {
			continue
		}
		if best == nil || h.LastUpdated.After(best.LastUpdated) {
			best = h
		}
	}
	if best == nil {
		return nil, nil
	}
	return &graph.Overlay{
		VisitedPages: best.Pages,
		CurrentPage:  best.Tip(),
	}, nil
}

var storyValidateCmd = &cobra.Command{
	Use:   "validate [story...]",
	Short: "Check stories for broken links and unreachable pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openGraph(cmd)
		if err != nil {
			return err
		}

		targets := args
		if len(targets) == 0 {
			stories, err := svc.Stories(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range stories {
				targets = append(targets, string(s.ID))
			}
		}

		failed := false
		for _, id := range targets {
			report, err := validator.ValidateStory(cmd.Context(), svc.Graph(), domain.StoryID(id))
			if err != nil {
				fmt.Printf("%s: %v\n", id, err)
				failed = true
				continue
			}
			if err := report.Err(); err != nil {
				fmt.Printf("%s: %v\n", id, err)
				failed = true
				continue
			}
			for _, p := range report.Unreachable {
				fmt.Printf("%s: warning: page '%s' is unreachable from the root\n", id, p)
			}
			fmt.Printf("%s: ok\n", id)
		}
		if failed {
			os.Exit(1)
		}
		return nil
	},
}

var storyImportCmd = &cobra.Command{
	Use:   "import <archive.html>",
	Short: "Import a published Twine 2 story",
	Long:  `Parses a Twine 2 HTML archive and writes it into the story repository as one markdown page per passage.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer f.Close()

		story, err := twine.Parse(f)
		if err != nil {
			return err
		}
		if slug, _ := cmd.Flags().GetString("story"); slug != "" {
			story.Slug = slug
		}

		dir, err := twine.Export(cfg.StoryDir, story)
		if err != nil {
			return err
		}
		fmt.Printf("Imported '%s' (%d pages) into %s\n", story.Name, len(story.Passages), dir)
		return nil
	},
}

var storySeedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Generate a small demo story",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		targetDir := cfg.StoryDir
		if len(args) > 0 {
			targetDir = args[0]
		}

		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return err
		}
		fmt.Printf("Seeding demo story in: %s\n", targetDir)

		// No versioning: pure file generation, acting as a level editor.
		repo, err := loam.Init(targetDir, loam.WithVersioning(false))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for id, content := range demoStory {
			doc := core.Document{
				ID:      "cave/" + id + ".md",
				Content: content,
			}
			if err := repo.Save(ctx, doc); err != nil {
				return fmt.Errorf("failed to seed page '%s': %w", id, err)
			}
		}
		fmt.Println("Done. Try: wayfarer play cave -s " + targetDir)
		return nil
	},
}

var demoStory = map[string]string{
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
}

// openGraph builds a read-only service over the story repository, without
// touching any store backend.
func openGraph(cmd *cobra.Command) (*wayfarer.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return wayfarer.New(cfg.StoryDir)
}

func init() {
	rootCmd.AddCommand(storyCmd)
	storyCmd.AddCommand(storyLsCmd)
	storyCmd.AddCommand(storyShowCmd)
	storyCmd.AddCommand(storyGraphCmd)
	storyCmd.AddCommand(storyValidateCmd)
	storyCmd.AddCommand(storyImportCmd)
	storyCmd.AddCommand(storySeedCmd)

	storyGraphCmd.Flags().StringP("reader", "r", "", "Overlay this reader's latest path")
	storyImportCmd.Flags().String("story", "", "Override the story id derived from the archive name")
}
