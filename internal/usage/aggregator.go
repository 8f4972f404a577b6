package usage

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

const listPageSize = 1000

// Aggregator computes usage snapshots. The four content counts and the
// storage total are fetched concurrently; one failing fetch never blocks the
// others, it only lands in Snapshot.Err.
type Aggregator struct {
	Lister ObjectLister
	Now    func() time.Time
}

func NewAggregator(lister ObjectLister) *Aggregator {
	return &Aggregator{Lister: lister, Now: time.Now}
}

type countTarget struct {
	table    string
	ownerCol string
	dst      *int64
}

// Collect builds the month-to-date snapshot for a user.
func (a *Aggregator) Collect(ctx context.Context, userID string) Snapshot {
	var snap Snapshot
	if userID == "" {
		snap.Ready = true
		return snap
	}

	from := MonthStart(a.Now())

	targets := []countTarget{
		{"legacy_posts", "user_id", &snap.LegacyCountMonth},
		{"idea_posts", "user_id", &snap.IdeaCountMonth},
		{"timeless_messages", "user_id", &snap.TimelessCountMonth},
		{"wisdom_resources", "created_by", &snap.WisdomCountMonth},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	for _, target := range targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := countSince(target.table, target.ownerCol, userID, from)
			mu.Lock()
			defer mu.Unlock()
			*target.dst = n
			if err != nil {
				errs = append(errs, target.table+": "+err.Error())
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		total, err := a.sumStorage(ctx, userID+"/")
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			// degrade to zero bytes instead of blocking the aggregation
			snap.StorageBytes = 0
			errs = append(errs, "storage: "+err.Error())
			return
		}
		snap.StorageBytes = total
	}()

	wg.Wait()

	snap.Err = strings.Join(errs, "; ")
	snap.Ready = true
	return snap
}

// countSince counts non-deleted rows owned by userID created on or after
// from. Tables that predate the soft-delete flag make the first query fail
// on the is_deleted column; the count is retried without the filter.
func countSince(table, ownerCol, userID string, from time.Time) (int64, error) {
	var n int64
	err := database.DB.
		Table(table).
		Where(ownerCol+" = ?", userID).
		Where("created_at >= ?", from).
		Where("is_deleted = ?", false).
		Count(&n).Error

	if err != nil && strings.Contains(err.Error(), "is_deleted") {
		err = database.DB.
			Table(table).
			Where(ownerCol+" = ?", userID).
			Where("created_at >= ?", from).
			Count(&n).Error
	}

	return n, err
}

// sumStorage totals object sizes under prefix, paging until a short page
// or an empty cursor ends the listing. Object-level sizes are preferred;
// a metadata-embedded size is the fallback.
func (a *Aggregator) sumStorage(ctx context.Context, prefix string) (int64, error) {
	if a.Lister == nil {
		return 0, nil
	}

	var total int64
	cursor := ""
	for {
		objs, next, err := a.Lister.List(ctx, prefix, cursor, listPageSize)
		if err != nil {
			return 0, err
		}

		for _, obj := range objs {
			total += objectSize(obj)
		}

		if next == "" || len(objs) < listPageSize {
			break
		}
		cursor = next
	}

	return total, nil
}

func objectSize(obj Object) int64 {
	if obj.Size != nil {
		return *obj.Size
	}
	if raw, ok := obj.Metadata["size"]; ok {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
