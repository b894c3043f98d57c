// Package twine imports Twine 2 HTML archives into story directories.
//
// A published Twine story embeds its source in a <tw-storydata> element
// whose <tw-passagedata> children hold the passage text, including the
// [[...]] link markup. The importer extracts that structure and rewrites
// it as one markdown document per passage, frontmatter first, in the
// layout the Loam story graph reads.
package twine

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Story is a parsed Twine archive.
type Story struct {
	Name     string
	Slug     string
	Start    string // slug of the starting passage
	Passages []Passage
}

// Passage is one node of the story, links already extracted.
type Passage struct {
	Name  string
	Slug  string
	Text  string
	Links []Link
}

// Link is one outgoing choice of a passage.
type Link struct {
	To    string // slug of the target passage
	Label string
}

// Parse reads a Twine 2 HTML archive and extracts its first story.
func Parse(r io.Reader) (*Story, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	data := findElement(doc, "tw-storydata")
	if data == nil {
		return nil, fmt.Errorf("no <tw-storydata> element found; is this a published Twine 2 story?")
	}

	story := &Story{
		Name: attr(data, "name"),
	}
	if story.Name == "" {
		return nil, fmt.Errorf("story has no name attribute")
	}
	story.Slug = Slugify(story.Name)

	startPid := attr(data, "startnode")
	for n := data.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || n.Data != "tw-passagedata" {
			continue
		}
		name := attr(n, "name")
		if name == "" {
			continue
		}
		body, links := extractLinks(textContent(n))
		p := Passage{
			Name:  name,
			Slug:  Slugify(name),
			Text:  strings.TrimSpace(body),
			Links: links,
		}
		story.Passages = append(story.Passages, p)
		if startPid != "" && attr(n, "pid") == startPid {
			story.Start = p.Slug
		}
	}

	if len(story.Passages) == 0 {
		return nil, fmt.Errorf("story '%s' has no passages", story.Name)
	}
	if story.Start == "" {
		// Older archives omit startnode; Twine's convention is that the
		// first passage opens the story.
		story.Start = story.Passages[0].Slug
	}
	return story, nil
}

// linkPattern matches the Twine link markup variants:
// [[target]], [[label|target]], [[label->target]], [[target<-label]].
var linkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// extractLinks pulls the link markup out of passage text, returning the
// text with each link replaced by its label.
func extractLinks(text string) (string, []Link) {
	var links []Link
	body := linkPattern.ReplaceAllStringFunc(text, func(raw string) string {
		inner := raw[2 : len(raw)-2]
		var label, target string
		switch {
		case strings.Contains(inner, "->"):
			parts := strings.SplitN(inner, "->", 2)
			label, target = parts[0], parts[1]
		case strings.Contains(inner, "<-"):
			parts := strings.SplitN(inner, "<-", 2)
			target, label = parts[0], parts[1]
		case strings.Contains(inner, "|"):
			parts := strings.SplitN(inner, "|", 2)
			label, target = parts[0], parts[1]
		default:
			label, target = inner, inner
		}
		label = strings.TrimSpace(label)
		target = strings.TrimSpace(target)
		if target == "" {
			return label
		}
		links = append(links, Link{To: Slugify(target), Label: label})
		return label
	})
	return body, links
}

// Slugify turns a passage or story name into a filesystem-safe ID.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '\'':
			// dropped, not dashed: "What's" becomes "whats"
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
