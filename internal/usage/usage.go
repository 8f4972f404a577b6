package usage

import (
	"context"
	"time"
)

// Snapshot is the month-to-date usage of a single user. It is derived per
// request and never persisted. Ready is false only while a caller has not
// collected usage yet; gates must defer decisions in that case.
type Snapshot struct {
	LegacyCountMonth   int64  `json:"legacy_count_month"`
	IdeaCountMonth     int64  `json:"idea_count_month"`
	TimelessCountMonth int64  `json:"timeless_count_month"`
	WisdomCountMonth   int64  `json:"wisdom_count_month"`
	StorageBytes       int64  `json:"storage_bytes"`
	Ready              bool   `json:"-"`
	Err                string `json:"error,omitempty"`
}

// MonthStart returns the first instant of the current calendar month, using
// the evaluating process's clock.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Object is one stored object as reported by a listing.
type Object struct {
	Key      string
	Size     *int64
	Metadata map[string]string
}

// ObjectLister pages through the objects under a prefix. An empty next
// cursor or a short page ends the listing.
type ObjectLister interface {
	List(ctx context.Context, prefix, cursor string, limit int32) (objs []Object, next string, err error)
}
