package meter

import (
	"fmt"
	"sort"

	"meterload/domain/sheet"
)

// ExtractStats counts what happened to the worksheet rows while extracting
// one meter.
type ExtractStats struct {
	RowsScanned int
	RowsDropped int
}

// Extract selects the date column and the meter's value column from the
// shared table and produces the normalized, time-ordered readings for that
// meter. Rows whose date or value cannot be coerced are dropped and counted.
//
// A missing column or a label-row mismatch is an error: the caller skips this
// meter and continues with the rest of the mapping. The label check is
// disabled when the mapping entry has no label or the workbook yielded no
// label row.
func Extract(tbl *sheet.Table, dateColumn string, def Definition) ([]Reading, ExtractStats, error) {
	var stats ExtractStats

	dateIdx, ok := tbl.ColumnIndex(dateColumn)
	if !ok {
		return nil, stats, fmt.Errorf("date column %q not found in header row", dateColumn)
	}

	valueIdx, ok := tbl.ColumnIndex(def.Column)
	if !ok {
		return nil, stats, fmt.Errorf("meter column %q not found in header row", def.Column)
	}

	if def.Label != "" && tbl.HasLabels() {
		if got := tbl.Label(valueIdx); !sheet.LabelsMatch(got, def.Label) {
			return nil, stats, fmt.Errorf("label mismatch on column %q: workbook says %q, mapping expects %q",
				def.Column, got, def.Label)
		}
	}

	readings := make([]Reading, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		stats.RowsScanned++

		ts, ok := ParseDate(tbl.Cell(i, dateIdx))
		if !ok {
			stats.RowsDropped++
			continue
		}
		value, ok := ParseValue(tbl.Cell(i, valueIdx))
		if !ok {
			stats.RowsDropped++
			continue
		}

		readings = append(readings, Reading{
			Time:        ts,
			FieldName:   def.FieldName(),
			Topic:       def.Topic,
			Value:       value,
			QualityCode: QualityGood,
		})
	}

	sort.SliceStable(readings, func(a, b int) bool {
		return readings[a].Time.Before(readings[b].Time)
	})

	return readings, stats, nil
}
