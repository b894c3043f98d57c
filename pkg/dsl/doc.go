/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing story graphs.

It allows developers to define branching stories using a type-safe, fluent builder pattern
instead of relying on a directory of markdown files. This is particularly useful for seeding
demos, unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/seranno/wayfarer/pkg/dsl"
	)

	func main() {
		cave := dsl.Story("cave")

		cave.Page("start").
			Title("The Cave Mouth").
			Body("A cold wind blows from the dark.").
			Root().
			Choice("tunnel", "Crawl into the tunnel").
			Choice("ledge", "Climb the ledge")

		cave.Page("tunnel").
			Title("The Tunnel").
			Body("The walls narrow around you.").
			Choice("lake", "Follow the water sound")

		cave.Page("ledge").
			Title("The Ledge").
			Body("There is no way further up.")

		cave.Page("lake").
			Title("The Underground Lake").
			Body("Still water, black as ink.")

		// The resulting graph can be used as a ports.StoryGraph
		graph, _ := cave.Build()
		// ... pass graph to wayfarer.New("", wayfarer.WithGraph(graph))
	}
*/
package dsl
