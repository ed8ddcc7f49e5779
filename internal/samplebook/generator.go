package samplebook

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"meterload/domain/meter"

	"github.com/xuri/excelize/v2"
)

// Workbook is an in-memory demo export in the layout this tool ingests:
// a metadata block, a label row, a header row, then daily totaliser rows.
//
// Columns: Date, M1 (Main Incoming Water), M2 (Boiler Feed).
// Totals are cumulative, so values only ever increase. Some date cells are
// written as spreadsheet serial numbers, the way re-saved exports come out,
// and one annotation row carries no values at all.
type Workbook struct {
	Metadata [][]string
	Labels   []string
	Headers  []string
	Rows     [][]string

	// Numeric series for validation/tests
	Dates  []time.Time
	Main   []float64
	Boiler []float64
}

type Config struct {
	Rows      int
	Seed      int64
	StartDate time.Time
	Sheet     string
}

func DefaultConfig() Config {
	return Config{
		Rows:      30,
		Seed:      42,
		StartDate: time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC),
		Sheet:     "Meter Readings",
	}
}

// annotationEvery spaces the value-free note rows a reader has to drop.
const annotationEvery = 10

// serialEvery spaces the rows whose date cell is a raw serial number.
const serialEvery = 7

func Generate(cfg Config) (*Workbook, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	dates := make([]time.Time, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		dates[i] = cfg.StartDate.AddDate(0, 0, i)
	}

	main := make([]float64, cfg.Rows)
	boiler := make([]float64, cfg.Rows)
	mainTotal := 100000.0
	boilerTotal := 20000.0
	for i := 0; i < cfg.Rows; i++ {
		mainTotal += 80 + rng.Float64()*320
		boilerTotal += 10 + rng.Float64()*40
		main[i] = round1(mainTotal)
		boiler[i] = round1(boilerTotal)
	}

	rows := make([][]string, 0, cfg.Rows+cfg.Rows/annotationEvery)
	for i := 0; i < cfg.Rows; i++ {
		dateCell := dates[i].Format("02/01/2006 15:04")
		if i > 0 && i%serialEvery == 0 {
			serial := dates[i].Sub(meter.SerialEpoch).Hours() / 24
			dateCell = strconv.FormatFloat(serial, 'f', 5, 64)
		}
		rows = append(rows, []string{
			dateCell,
			fToStr(main[i], 1),
			fToStr(boiler[i], 1),
		})
		if i > 0 && i%annotationEvery == 0 {
			rows = append(rows, []string{dates[i].Format("02/01/2006"), "meter inspection", ""})
		}
	}

	return &Workbook{
		Metadata: [][]string{
			{"Astellas Water Meter Export"},
			{"Site", "Primary"},
			{"Exported", cfg.StartDate.AddDate(0, 0, cfg.Rows).Format("02/01/2006")},
		},
		Labels:  []string{"Timestamp", "Main Incoming Water", "Boiler Feed"},
		Headers: []string{"Date", "M1", "M2"},
		Rows:    rows,
		Dates:   dates,
		Main:    main,
		Boiler:  boiler,
	}, nil
}

// Write saves the workbook, keyed on the file extension like the loader:
// .csv gets a flat CSV, anything else an xlsx worksheet.
func Write(path string, wb *Workbook, sheet string) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, wb)
	}
	return writeXLSX(path, wb, sheet)
}

func (wb *Workbook) grid() [][]string {
	grid := make([][]string, 0, len(wb.Metadata)+2+len(wb.Rows))
	grid = append(grid, wb.Metadata...)
	grid = append(grid, wb.Labels, wb.Headers)
	grid = append(grid, wb.Rows...)
	return grid
}

func writeCSV(path string, wb *Workbook) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	for _, row := range wb.grid() {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeXLSX(path string, wb *Workbook, sheet string) error {
	f := excelize.NewFile()
	if sheet == "" {
		sheet = DefaultConfig().Sheet
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for r, row := range wb.grid() {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

func fToStr(x float64, decimals int) string {
	return strconv.FormatFloat(x, 'f', decimals, 64)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
