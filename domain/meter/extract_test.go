package meter

import (
	"strings"
	"testing"
	"time"

	"meterload/domain/sheet"
)

func mainMeter() Definition {
	return Definition{
		Column: "M1",
		Label:  "Main Incoming Water",
		Topic:  "Astellas/Primary/Main_Incoming_Water",
	}
}

func waterTable() *sheet.Table {
	return &sheet.Table{
		Labels:  []string{"Timestamp", "Main Incoming Water", "Boiler Feed"},
		Headers: []string{"Date", "M1", "M2"},
		Rows: [][]string{
			{"02/01/2024", "100.5", "7"},
			{"01/01/2024", "99.0", "8"},
			{"03/01/2024", "", "9"},         // value missing
			{"not a date", "101.0", "10"},   // date invalid
			{"45295", "102.25", "11"},       // serial date (2024-01-04)
			{"05/01/2024", "oops", "12"},    // value invalid
			{"06/01/2024 06:30", "103", ""}, // valid, short on M2 only
		},
	}
}

func TestExtractNormalizesAndOrders(t *testing.T) {
	readings, stats, err := Extract(waterTable(), "Date", mainMeter())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if stats.RowsScanned != 7 {
		t.Errorf("RowsScanned = %d, want 7", stats.RowsScanned)
	}
	if stats.RowsDropped != 3 {
		t.Errorf("RowsDropped = %d, want 3", stats.RowsDropped)
	}
	if len(readings) != 4 {
		t.Fatalf("got %d readings, want 4", len(readings))
	}

	// Rows come back ascending by time regardless of worksheet order.
	want := []struct {
		ts    time.Time
		value float64
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 99.0},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 100.5},
		{time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), 102.25},
		{time.Date(2024, 1, 6, 6, 30, 0, 0, time.UTC), 103},
	}
	for i, w := range want {
		if !readings[i].Time.Equal(w.ts) {
			t.Errorf("reading %d time = %s, want %s", i, readings[i].Time, w.ts)
		}
		if readings[i].Value != w.value {
			t.Errorf("reading %d value = %v, want %v", i, readings[i].Value, w.value)
		}
	}

	for i, r := range readings {
		if r.FieldName != DefaultField {
			t.Errorf("reading %d field = %q, want %q", i, r.FieldName, DefaultField)
		}
		if r.Topic != "Astellas/Primary/Main_Incoming_Water" {
			t.Errorf("reading %d topic = %q", i, r.Topic)
		}
		if r.QualityCode != QualityGood {
			t.Errorf("reading %d quality = %d, want %d", i, r.QualityCode, QualityGood)
		}
	}
}

func TestExtractMissingMeterColumn(t *testing.T) {
	def := mainMeter()
	def.Column = "M9"

	_, _, err := Extract(waterTable(), "Date", def)
	if err == nil {
		t.Fatal("expected error for missing meter column")
	}
	if !strings.Contains(err.Error(), "M9") {
		t.Errorf("error should name the missing column, got: %v", err)
	}
}

func TestExtractMissingDateColumn(t *testing.T) {
	_, _, err := Extract(waterTable(), "Timestamp", mainMeter())
	if err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestExtractLabelMismatch(t *testing.T) {
	def := mainMeter()
	def.Label = "Cooling Tower Makeup"

	_, _, err := Extract(waterTable(), "Date", def)
	if err == nil {
		t.Fatal("expected error for label mismatch")
	}
	if !strings.Contains(err.Error(), "Cooling Tower Makeup") || !strings.Contains(err.Error(), "Main Incoming Water") {
		t.Errorf("error should name both labels, got: %v", err)
	}
}

func TestExtractLabelCheckTolerance(t *testing.T) {
	// Case and internal whitespace drift are not layout drift.
	tbl := waterTable()
	tbl.Labels[1] = "  MAIN   incoming water "

	if _, _, err := Extract(tbl, "Date", mainMeter()); err != nil {
		t.Fatalf("normalized label should match: %v", err)
	}
}

func TestExtractLabelCheckDisabled(t *testing.T) {
	// No label row in the workbook: the check cannot run.
	tbl := waterTable()
	tbl.Labels = nil
	if _, _, err := Extract(tbl, "Date", mainMeter()); err != nil {
		t.Fatalf("Extract without label row failed: %v", err)
	}

	// No label configured for the meter: the check is opted out.
	tbl = waterTable()
	tbl.Labels[1] = "Renamed Column"
	def := mainMeter()
	def.Label = ""
	if _, _, err := Extract(tbl, "Date", def); err != nil {
		t.Fatalf("Extract without configured label failed: %v", err)
	}
}

func TestExtractCustomField(t *testing.T) {
	def := mainMeter()
	def.Field = "dailyTotal"

	readings, _, err := Extract(waterTable(), "Date", def)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, r := range readings {
		if r.FieldName != "dailyTotal" {
			t.Errorf("field = %q, want dailyTotal", r.FieldName)
		}
	}
}

func TestExtractEmptyTable(t *testing.T) {
	tbl := &sheet.Table{
		Labels:  []string{"Timestamp", "Main Incoming Water"},
		Headers: []string{"Date", "M1"},
	}

	readings, stats, err := Extract(tbl, "Date", mainMeter())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(readings) != 0 || stats.RowsScanned != 0 {
		t.Errorf("expected empty result, got %d readings / %+v", len(readings), stats)
	}
}
