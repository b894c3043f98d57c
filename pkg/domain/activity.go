package domain

import "time"

// ActivityRecord is one entry in a reader's append-only activity feed.
// Unlike History, the feed keeps every recorded visit, including revisits.
type ActivityRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Story     StoryID   `json:"story"`
	Page      PageID    `json:"page"`
}

// Favorite marks a page a reader starred.
type Favorite struct {
	Story StoryID `json:"story"`
	Page  PageID  `json:"page"`
}
