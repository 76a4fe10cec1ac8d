package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

// WriteMonthlyCSV emits the trailing-month order buckets as CSV.
func WriteMonthlyCSV(w io.Writer, buckets []rollup.MonthBucket) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Month", "Orders", "Spend"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		if err := writer.Write([]string{
			bucket.Label,
			strconv.Itoa(bucket.Count),
			formatFloat(bucket.Sum),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDistributionCSV prints per-status order counts to CSV.
func WriteDistributionCSV(w io.Writer, counts []rollup.StatusCount) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Status", "Orders"}); err != nil {
		return err
	}
	for _, count := range counts {
		if err := writer.Write([]string{count.Label, strconv.Itoa(count.Count)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTopItemsCSV emits the ranked material quantities as CSV.
func WriteTopItemsCSV(w io.Writer, items []rollup.LabelQuantity) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Material", "Quantity"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{item.Label, formatFloat(item.TotalQuantity)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRankingCSV prints the supplier ranking to CSV.
func WriteRankingCSV(w io.Writer, entities []rollup.RatedEntity) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Supplier", "Score"}); err != nil {
		return err
	}
	for _, entity := range entities {
		if err := writer.Write([]string{entity.DisplayName, formatFloat(entity.Score)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
