package rollup

import (
	"errors"
	"sort"
)

// ErrTopN flags a negative top-N bound.
var ErrTopN = errors.New("rollup: topN must not be negative")

// DistributionByStatus counts records per caller-supplied status label,
// matched case-insensitively. Every supplied label produces an entry, zero
// counts included. Records matching none of the labels are excluded rather
// than collected into an "other" bucket; callers wanting visibility can
// compare the distribution total against len(records).
func DistributionByStatus(records []TransactionRecord, statusLabels []string) []StatusCount {
	counts := make([]StatusCount, len(statusLabels))
	index := make(map[string]int, len(statusLabels))
	for i, label := range statusLabels {
		counts[i] = StatusCount{Label: label}
		key := foldStatus(label)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	for _, rec := range records {
		if i, ok := index[foldStatus(rec.Status)]; ok {
			counts[i].Count++
		}
	}
	return counts
}

// TopByLineItemLabel aggregates line item quantities across all records,
// grouped by label (case-sensitive), and returns at most topN entries ordered
// by descending total quantity. Ties keep first-seen order so rankings stay
// stable across re-renders.
func TopByLineItemLabel(records []TransactionRecord, topN int) ([]LabelQuantity, error) {
	if topN < 0 {
		return nil, ErrTopN
	}
	totals := make([]LabelQuantity, 0)
	index := make(map[string]int)
	for _, rec := range records {
		for _, item := range rec.LineItems {
			i, ok := index[item.Label]
			if !ok {
				i = len(totals)
				index[item.Label] = i
				totals = append(totals, LabelQuantity{Label: item.Label})
			}
			totals[i].TotalQuantity += item.Quantity
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalQuantity > totals[j].TotalQuantity
	})
	if len(totals) > topN {
		totals = totals[:topN]
	}
	return totals, nil
}

// RankEntities orders entities by descending score and truncates to topN.
// Ties keep insertion order and zero scores are not filtered; excluding
// unrated entities is the caller's call. The input slice is left untouched.
func RankEntities(entities []RatedEntity, topN int) ([]RatedEntity, error) {
	if topN < 0 {
		return nil, ErrTopN
	}
	ranked := make([]RatedEntity, len(entities))
	copy(ranked, entities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
