package domain

import "time"

// HistoryUpdate represents the changes one recorded visit made to a reader's
// collection. It is designed to be serialized to JSON for live updates on
// the client.
type HistoryUpdate struct {
	// Reader is always present to identify the target.
	Reader string `json:"reader"`

	Story StoryID `json:"story"`
	Page  PageID  `json:"page"`
	Op    PathOp  `json:"op"`

	// HistoryID is the position of the active record after the visit.
	HistoryID int `json:"history_id"`

	// HistoryKey is the stable ULID of the active record.
	HistoryKey string `json:"history_key,omitempty"`

	// Appended contains only pages added to the active record.
	// Touch-only visits leave it empty.
	Appended []PageID `json:"appended,omitempty"`

	// Absorbed lists record IDs removed by the merge pass.
	Absorbed []string `json:"absorbed,omitempty"`

	At time.Time `json:"at"`
}

// IsEmpty checks if the update contains any actionable changes.
func (u *HistoryUpdate) IsEmpty() bool {
	return len(u.Appended) == 0 &&
		len(u.Absorbed) == 0 &&
		u.Op == OpNone
}
