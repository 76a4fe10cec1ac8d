package rollup

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Normalize maps heterogeneous raw records into TransactionRecords. Malformed
// fields degrade to defaults rather than aborting the batch: a bad amount
// becomes 0, a bad timestamp becomes now, a missing status becomes
// StatusUnspecified. Input records are never mutated.
func Normalize(raw []RawRecord, fields FieldCandidates, now time.Time) []TransactionRecord {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	records := make([]TransactionRecord, 0, len(raw))
	for _, src := range raw {
		if src == nil {
			continue
		}
		rec := TransactionRecord{
			ID:        coerceString(probe(src, fields.ID)),
			Timestamp: coerceTime(probe(src, fields.Timestamp), now),
			Amount:    coerceAmount(probe(src, fields.Amount)),
			Status:    coerceStatus(probe(src, fields.Status)),
		}
		if fields.LineItems != "" {
			rec.LineItems = coerceLineItems(src[fields.LineItems], fields)
		}
		records = append(records, rec)
	}
	return records
}

// foldStatus builds the case-insensitive comparison key for a status label.
// A fresh Caser per call keeps this safe under concurrent rollups; Casers
// carry internal state and must not be shared.
func foldStatus(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func probe(src RawRecord, candidates []string) any {
	for _, name := range candidates {
		if value, ok := src[name]; ok && value != nil {
			return value
		}
	}
	return nil
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func coerceStatus(value any) string {
	s, ok := value.(string)
	if !ok {
		return StatusUnspecified
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusUnspecified
	}
	return s
}

func coerceAmount(value any) float64 {
	var amount float64
	switch v := value.(type) {
	case float64:
		amount = v
	case float32:
		amount = float64(v)
	case int:
		amount = float64(v)
	case int32:
		amount = float64(v)
	case int64:
		amount = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		amount = parsed
	default:
		return 0
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// coerceTime accepts ISO strings, epoch-like numbers and time.Time values.
// Anything else resolves to the reference instant so a bad date marks the
// record as fresh instead of blocking the whole batch.
func coerceTime(value any, fallback time.Time) time.Time {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return fallback
		}
		return v
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
		return fallback
	case float64:
		return epochToTime(int64(v), fallback)
	case int64:
		return epochToTime(v, fallback)
	case int:
		return epochToTime(int64(v), fallback)
	default:
		return fallback
	}
}

func epochToTime(v int64, fallback time.Time) time.Time {
	if v <= 0 {
		return fallback
	}
	// Values past the year 10000 in seconds are assumed to be milliseconds.
	if v > 253402300799 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

func coerceLineItems(value any, fields FieldCandidates) []LineItem {
	entries, ok := value.([]any)
	if !ok {
		return nil
	}
	items := make([]LineItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label := coerceString(probe(obj, fields.ItemLabel))
		if label == "" {
			continue
		}
		qty, ok := coerceQuantity(probe(obj, fields.ItemQuantity))
		if !ok {
			continue
		}
		items = append(items, LineItem{Label: label, Quantity: qty})
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func coerceQuantity(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, v >= 0
	case float32:
		return float64(v), v >= 0
	case int:
		return float64(v), v >= 0
	case int64:
		return float64(v), v >= 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || parsed < 0 {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
