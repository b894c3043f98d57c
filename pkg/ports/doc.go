/*
Package ports defines the driven ports (interfaces) for the Wayfarer engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends and graph sources.

# Key Interfaces

  - StoryGraph: Responsible for loading Story and Page definitions (e.g., from Loam or Memory).
  - HistoryStore: Responsible for persisting and loading reader history collections.
  - ActivityLog: Responsible for the append-only per-reader visit feed.
  - FavoriteStore: Responsible for the pages a reader starred.
  - DistributedLocker: Provides distributed locking for handling concurrent reader access.
*/
package ports
