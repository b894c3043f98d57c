package domain

import (
	"context"
	"time"
)

// PathOp names the effect a visit had on the reader's collection.
type PathOp string

const (
	OpNone     PathOp = "none"     // preview or guest, nothing recorded
	OpStarted  PathOp = "started"  // new single-page record created
	OpResumed  PathOp = "resumed"  // existing single-page record matched
	OpExtended PathOp = "extended" // page appended to the active record
	OpForked   PathOp = "forked"   // divergence copied a prefix into a new record
	OpReplayed PathOp = "replayed" // page already on the path, timestamp refreshed
	OpTouched  PathOp = "touched"  // backward movement, timestamp refreshed
)

// VisitEvent describes one settled visit.
type VisitEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Reader    string    `json:"reader"`
	Story     StoryID   `json:"story"`
	Page      PageID    `json:"page"`
	Kind      VisitKind `json:"kind"`
	Op        PathOp    `json:"op"`

	// Histories is the collection size after the visit settled.
	Histories int `json:"histories"`
}

// MergeEvent describes one merge pass that absorbed duplicate records.
type MergeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Reader    string    `json:"reader"`
	Story     StoryID   `json:"story"`

	// Survivor is the ID of the record that remained.
	Survivor string `json:"survivor"`

	// Absorbed lists the IDs of the records removed.
	Absorbed []string `json:"absorbed"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks are optional (nil fields are skipped) and called synchronously
// after the reader's lock is released.
type LifecycleHooks struct {
	OnVisit func(context.Context, *VisitEvent)
	OnMerge func(context.Context, *MergeEvent)
}
