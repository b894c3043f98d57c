package wayfarer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/seranno/wayfarer/pkg/domain"
)

// ContentRenderer is a function that transforms page markdown before output.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Player walks a story interactively using provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Player struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer

	// ReaderID identifies whose path is being extended. Empty plays as a
	// guest; the walk works but nothing is recorded.
	ReaderID string
}

// NewPlayer creates a Player over the given IO.
func NewPlayer(input io.Reader, output io.Writer) *Player {
	return &Player{
		Input:  input,
		Output: output,
	}
}

// Play opens the story at its root and loops until an ending page, an
// explicit quit, or EOF. Choices are picked by number, by label prefix, or
// by target page ID; "back" retraces one step.
func (p *Player) Play(ctx context.Context, svc *Service, story domain.StoryID) error {
	if p.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if p.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(p.Input)

	result, err := svc.Visit(ctx, p.ReaderID, domain.Visit{
		Kind:  domain.VisitRoot,
		Story: story,
	})
	if err != nil {
		return fmt.Errorf("failed to open story: %w", err)
	}

	for {
		p.printPage(result.Page)

		if len(result.Page.Links) == 0 {
			fmt.Fprintln(p.Output, "~ The End ~")
			return nil
		}

		p.printChoices(result)

		fmt.Fprint(p.Output, "> ")
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		switch {
		case input == "exit" || input == "quit":
			fmt.Fprintln(p.Output, "Bye!")
			return nil

		case input == "back" && result.Back != nil:
			result, err = p.move(ctx, svc, result, result.Back.ID, false)

		case input == "back":
			fmt.Fprintln(p.Output, "Nothing to go back to.")
			continue

		default:
			target, ok := matchChoice(result.Page.Links, input)
			if !ok {
				fmt.Fprintln(p.Output, "Pick a number from the list (or 'back', 'quit').")
				continue
			}
			result, err = p.move(ctx, svc, result, target, true)
		}
		if err != nil {
			return fmt.Errorf("navigation error: %w", err)
		}
	}
}

// move follows one edge, carrying the path reference from the last result.
func (p *Player) move(ctx context.Context, svc *Service, from *VisitResult, to domain.PageID, forward bool) (*VisitResult, error) {
	v := domain.Visit{
		Kind:    domain.VisitLinked,
		Story:   from.Page.Story,
		Page:    to,
		Prev:    from.Page.ID,
		Forward: forward,
	}
	if from.HistoryID >= 0 {
		ref := from.HistoryID
		v.HistoryRef = &ref
	}
	return svc.Visit(ctx, p.ReaderID, v)
}

func (p *Player) printPage(page *domain.Page) {
	body := page.Body
	if body == "" {
		body = page.Title
	}
	if p.Renderer != nil {
		if rendered, err := p.Renderer(body); err == nil {
			body = rendered
		}
	}
	if page.Title != "" {
		fmt.Fprintf(p.Output, "\n== %s ==\n", page.Title)
	}
	fmt.Fprintln(p.Output, strings.TrimSpace(body))
}

func (p *Player) printChoices(result *VisitResult) {
	fmt.Fprintln(p.Output)
	for i, link := range result.Page.Links {
		label := link.Label
		if label == "" {
			label = string(link.To)
		}
		fmt.Fprintf(p.Output, "  %d) %s\n", i+1, label)
	}
	if result.Back != nil {
		fmt.Fprintf(p.Output, "  back) %s\n", result.Back.Title)
	}
}

// matchChoice resolves user input to a link target: 1-based number, exact
// page ID, or case-insensitive label prefix.
func matchChoice(links []domain.Link, input string) (domain.PageID, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(links) {
			return links[n-1].To, true
		}
		return "", false
	}

	for _, link := range links {
		if string(link.To) == input {
			return link.To, true
		}
	}

	lower := strings.ToLower(input)
	if lower == "" {
		return "", false
	}
	for _, link := range links {
		if strings.HasPrefix(strings.ToLower(link.Label), lower) {
			return link.To, true
		}
	}
	return "", false
}
