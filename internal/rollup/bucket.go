package rollup

import (
	"errors"
	"time"
)

// ErrWindowSize flags a non-positive trailing window. This is a programming
// defect at the call boundary, not unclean data, so it is not absorbed.
var ErrWindowSize = errors.New("rollup: window size must be positive")

// BucketByMonth groups records into a trailing window of calendar months
// ending at ref's month inclusive. Exactly windowMonths buckets are returned,
// oldest first, including empty ones. When pred is non-nil only records
// satisfying it are counted and summed. Records outside the window are
// excluded.
func BucketByMonth(records []TransactionRecord, windowMonths int, ref time.Time, pred func(TransactionRecord) bool) ([]MonthBucket, error) {
	if windowMonths <= 0 {
		return nil, ErrWindowSize
	}
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -(windowMonths - 1), 0)
	startIndex := monthIndex(start)

	buckets := make([]MonthBucket, windowMonths)
	for i := range buckets {
		buckets[i].Label = start.AddDate(0, i, 0).Format("Jan")
	}

	for _, rec := range records {
		if pred != nil && !pred(rec) {
			continue
		}
		idx := monthIndex(rec.Timestamp) - startIndex
		if idx < 0 || idx >= windowMonths {
			continue
		}
		buckets[idx].Count++
		buckets[idx].Sum += rec.Amount
	}
	return buckets, nil
}

// monthIndex maps an instant to a monotonically increasing month ordinal, so
// interval membership reduces to an index comparison. Month boundaries act as
// closed intervals: the last instant of a month still lands in that month.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
