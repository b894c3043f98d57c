/*
Package wayfarer tracks readers' paths through branching stories.

A story is a directed graph of markdown pages. As a reader moves through it,
Wayfarer maintains a collection of history records per reader: ordered page
sequences, one per distinct route taken. Each navigation event either extends
the record the reader is on, forks a new record when they diverge from it,
or merges records that have converged onto the same path. The collection is
what powers "continue where you left off", back buttons, and path
visualizations.

# Concept

The path engine is a pure function over (collection, visit): it never does
I/O, so every transport sees identical semantics. Around it, the hexagonal
layout keeps the core decoupled from adapters: story graphs can come from a
Loam markdown repository or from memory, and collections can live in memory,
on disk, in Redis or in SQLite, with optional at-rest encryption. Per-reader
serialization makes concurrent visits safe without a global lock.

# Usage

Initialize the Service against a story directory. The default graph reads
Loam-style markdown pages ("story/page.md" with frontmatter links).

	package main

	import (
		"context"
		"log"

		"github.com/seranno/wayfarer"
		"github.com/seranno/wayfarer/pkg/domain"
	)

	func main() {
		svc, err := wayfarer.New("./stories")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()

		// A reader opens a story at its root.
		result, err := svc.Visit(ctx, "anne", domain.Visit{
			Kind:  domain.VisitRoot,
			Story: "cave",
		})
		if err != nil {
			log.Fatal(err)
		}

		// Follow a link; the history reference ties the move to the
		// record it extends.
		ref := result.HistoryID
		result, err = svc.Visit(ctx, "anne", domain.Visit{
			Kind:       domain.VisitLinked,
			Story:      "cave",
			Page:       result.Page.Links[0].To,
			Prev:       result.Page.ID,
			HistoryRef: &ref,
			Forward:    true,
		})
		if err != nil {
			log.Fatal(err)
		}

		log.Printf("op=%s path=%v", result.Op, result.Appended)
	}

For transports, see pkg/adapters/http (JSON API with SSE updates) and
pkg/adapters/mcp. For store backends and middleware, see pkg/adapters and
pkg/persistence/middleware.
*/
package wayfarer
