/*
Package session implements reader session management and persistence
orchestration.

It provides high-level abstractions for handling concurrent access to reader
history collections across multiple replicas, combining per-reader in-process
locks with optional distributed locking and long-term storage adapters.
*/
package session
