package twine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter mirrors the page header the Loam story graph decodes.
type frontmatter struct {
	Title string      `yaml:"title"`
	Root  bool        `yaml:"root,omitempty"`
	Links []linkEntry `yaml:"links,omitempty"`
}

type linkEntry struct {
	To    string `yaml:"to"`
	Label string `yaml:"label"`
}

// Export writes the story as a directory of markdown pages under dir.
// The directory is named after the story slug; each passage becomes
// "<slug>.md" with its links and title in frontmatter.
func Export(dir string, story *Story) (string, error) {
	storyDir := filepath.Join(dir, story.Slug)
	if err := os.MkdirAll(storyDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create story directory: %w", err)
	}

	for _, p := range story.Passages {
		fm := frontmatter{
			Title: p.Name,
			Root:  p.Slug == story.Start,
		}
		for _, l := range p.Links {
			fm.Links = append(fm.Links, linkEntry{To: l.To, Label: l.Label})
		}

		header, err := yaml.Marshal(fm)
		if err != nil {
			return "", fmt.Errorf("failed to marshal frontmatter for '%s': %w", p.Name, err)
		}

		var b strings.Builder
		b.WriteString("---\n")
		b.Write(header)
		b.WriteString("---\n\n")
		b.WriteString(p.Text)
		b.WriteString("\n")

		path := filepath.Join(storyDir, p.Slug+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return "", fmt.Errorf("failed to write page '%s': %w", p.Slug, err)
		}
	}

	return storyDir, nil
}
