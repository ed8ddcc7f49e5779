package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meterload/domain/sheet"
	"meterload/ports"

	"github.com/xuri/excelize/v2"
)

// SheetLoader reads meter workbooks from Excel and CSV files into the shared
// tabular structure. The format is keyed on the file extension: .csv goes
// through encoding/csv, everything else through excelize.
type SheetLoader struct{}

// NewSheetLoader creates a sheet loader for both workbook formats.
func NewSheetLoader() *SheetLoader {
	return &SheetLoader{}
}

// Load opens the workbook, resolves the worksheet, skips the metadata rows
// and returns the label row, header codes and data rows.
func (l *SheetLoader) Load(ctx context.Context, req ports.SheetRequest) (*sheet.Table, error) {
	if req.SkipRows < 0 {
		return nil, fmt.Errorf("skip rows must not be negative, got %d", req.SkipRows)
	}
	if _, err := os.Stat(req.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", req.Path)
	}

	var (
		raw [][]string
		err error
	)
	start := time.Now()
	if strings.ToLower(filepath.Ext(req.Path)) == ".csv" {
		raw, err = l.readCSV(req.Path)
	} else {
		raw, err = l.readExcel(req.Path, req.Sheet)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[SheetLoader] %s read in %.2fms (%d raw rows)",
		req.Path, float64(time.Since(start).Nanoseconds())/1e6, len(raw))

	return sliceTable(raw, req.SkipRows)
}

func (l *SheetLoader) readExcel(path, sheetName string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets: %s", path)
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx == -1 {
		return nil, fmt.Errorf("worksheet %q not found (workbook has: %s)",
			sheetName, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}
	return rows, nil
}

func (l *SheetLoader) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // metadata rows are usually ragged
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// sliceTable splits the raw grid into metadata, header and data regions. The
// header row sits directly under the skipped metadata rows; the last metadata
// row is the label row.
func sliceTable(raw [][]string, skipRows int) (*sheet.Table, error) {
	if len(raw) <= skipRows {
		return nil, fmt.Errorf("worksheet has %d rows, need a header row after %d metadata rows",
			len(raw), skipRows)
	}

	headerRow := raw[skipRows]
	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = strings.TrimSpace(h)
	}

	tbl := &sheet.Table{
		Headers: headers,
		Rows:    raw[skipRows+1:],
	}
	if skipRows > 0 {
		tbl.Labels = raw[skipRows-1]
	}
	return tbl, nil
}
