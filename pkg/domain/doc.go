/*
Package domain contains the core domain models for the Wayfarer path engine.

It defines the fundamental entities of the engine, such as Stories, Pages,
and reader Histories. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Story: A branching narrative graph with a designated root page.
  - Page: A point in the graph, linking forward to other pages.
  - History: One reader's deduplicated path through a single story.
  - Visit: A navigation event applied against a reader's collection.
*/
package domain
