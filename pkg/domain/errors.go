package domain

import "errors"

// ErrStoryNotFound is returned when a story ID cannot be resolved by the graph.
var ErrStoryNotFound = errors.New("story not found")

// ErrPageNotFound is returned when a page does not exist within a story.
var ErrPageNotFound = errors.New("page not found")

// ErrReaderRequired is returned when an operation needs an identified reader.
var ErrReaderRequired = errors.New("reader required")

// ErrInvalidReader is returned when a reader ID cannot be used as a storage
// key, for example when it would name a path outside the store.
var ErrInvalidReader = errors.New("invalid reader id")

// ErrStoreUnavailable wraps persistence failures so transports can map them
// to a service-unavailable response.
var ErrStoreUnavailable = errors.New("history store unavailable")
