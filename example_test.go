package wayfarer_test

import (
	"context"
	"fmt"
	"log"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/dsl"
)

// ExampleNew_memory demonstrates using the Service with an in-memory story,
// without reading from the filesystem. This is useful for tests and
// embedded scenarios.
func ExampleNew_memory() {
	// 1. Define the story with the builder.
	b := dsl.Story("cave")
	b.Page("start").Title("The Cave Mouth").Root().
		Choice("tunnel", "Step inside")
	b.Page("tunnel").Title("The Tunnel")
	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Initialize the Service with the custom graph.
	// No story directory needed ("") because we are providing one.
	svc, err := wayfarer.New("", wayfarer.WithGraph(graph))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// 3. Open the story; a first record starts at the root.
	result, err := svc.Visit(ctx, "anne", domain.Visit{
		Kind:  domain.VisitRoot,
		Story: "cave",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("op: %s, page: %s\n", result.Op, result.Page.ID)

	// 4. Follow the link, extending the same record.
	ref := result.HistoryID
	result, err = svc.Visit(ctx, "anne", domain.Visit{
		Kind:       domain.VisitLinked,
		Story:      "cave",
		Page:       "tunnel",
		Prev:       "start",
		HistoryRef: &ref,
		Forward:    true,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("op: %s, back: %s\n", result.Op, result.Back.ID)

	histories, _ := svc.Histories(ctx, "anne")
	fmt.Printf("records: %d, path: %v\n", len(histories), histories[0].Pages)
	// Output:
	// op: started, page: start
	// op: extended, back: start
	// records: 1, path: [start tunnel]
}
