package app

import (
	"context"
	"fmt"
	"time"

	"meterload/domain/meter"
	"meterload/internal"
	"meterload/internal/errors"
	"meterload/ports"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
)

// Loader orchestrates one batch load: read the workbook once, extract each
// configured meter column, and append the cleaned readings per meter.
type Loader struct {
	source ports.SheetSource
	writer ports.ReadingWriter
	logger *internal.Logger
}

// LoadRequest defines inputs for one load run
type LoadRequest struct {
	Sheet      ports.SheetRequest
	DateColumn string
	Meters     []meter.Definition
	DryRun     bool
}

// ValueSummary describes the values staged for one meter
type ValueSummary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// MeterResult records the outcome for a single meter column. Err is set when
// the meter was skipped; the remaining fields then describe how far it got.
type MeterResult struct {
	Meter     meter.Definition
	Extracted int
	Dropped   int
	Inserted  int
	Values    ValueSummary
	Err       error
}

// RunReport aggregates per-meter outcomes for one load run
type RunReport struct {
	RunID   uuid.UUID
	Path    string
	Sheet   string
	Started time.Time
	Elapsed time.Duration
	DryRun  bool
	Results []MeterResult
}

// TotalInserted sums rows written across all meters
func (r *RunReport) TotalInserted() int {
	total := 0
	for _, res := range r.Results {
		total += res.Inserted
	}
	return total
}

// SkippedMeters counts meters that ended in an error
func (r *RunReport) SkippedMeters() int {
	skipped := 0
	for _, res := range r.Results {
		if res.Err != nil {
			skipped++
		}
	}
	return skipped
}

// NewLoader creates a loader service
func NewLoader(source ports.SheetSource, writer ports.ReadingWriter) *Loader {
	return &Loader{
		source: source,
		writer: writer,
		logger: internal.NewDefaultLogger(),
	}
}

// Run executes one load. A failing meter is recorded and skipped; the run
// only fails as a whole when the workbook itself cannot be read.
func (l *Loader) Run(ctx context.Context, req LoadRequest) (*RunReport, error) {
	if req.DateColumn == "" {
		return nil, errors.ConfigInvalid("date column is required")
	}
	if len(req.Meters) == 0 {
		return nil, errors.ConfigInvalid("no meters configured")
	}

	started := time.Now()
	report := &RunReport{
		RunID:   uuid.New(),
		Path:    req.Sheet.Path,
		Sheet:   req.Sheet.Sheet,
		Started: started,
		DryRun:  req.DryRun,
	}

	tbl, err := l.source.Load(ctx, req.Sheet)
	if err != nil {
		return nil, errors.SheetError(fmt.Sprintf("failed to load workbook %s", req.Sheet.Path), err)
	}

	l.logger.Info("Run %s: %d data rows, %d meters", report.RunID, len(tbl.Rows), len(req.Meters))

	for _, def := range req.Meters {
		result := MeterResult{Meter: def}

		readings, extraction, err := meter.Extract(tbl, req.DateColumn, def)
		if err != nil {
			result.Err = errors.MeterSkipped(def.Column, err)
			l.logger.Warn("Meter %s skipped: %v", def.Column, err)
			report.Results = append(report.Results, result)
			continue
		}
		result.Extracted = len(readings)
		result.Dropped = extraction.RowsDropped
		if summary, err := summarizeValues(readings); err == nil {
			result.Values = summary
		}

		if req.DryRun {
			l.logger.Info("Meter %s: %d readings staged (%d dropped), dry run",
				def.Column, result.Extracted, result.Dropped)
			report.Results = append(report.Results, result)
			continue
		}

		inserted, err := l.writer.Append(ctx, readings)
		if err != nil {
			result.Err = errors.MeterSkipped(def.Column, err)
			l.logger.Warn("Meter %s write failed: %v", def.Column, err)
			report.Results = append(report.Results, result)
			continue
		}
		result.Inserted = inserted
		l.logger.Info("Meter %s: %d readings inserted (%d dropped)",
			def.Column, result.Inserted, result.Dropped)
		if l.logger.GetLevel() >= internal.LogLevelDebug && result.Values.Count > 0 {
			l.logger.Debug("Meter %s values: min=%.3f max=%.3f mean=%.3f",
				def.Column, result.Values.Min, result.Values.Max, result.Values.Mean)
		}
		report.Results = append(report.Results, result)
	}

	report.Elapsed = time.Since(started)
	return report, nil
}

func summarizeValues(readings []meter.Reading) (ValueSummary, error) {
	if len(readings) == 0 {
		return ValueSummary{}, nil
	}

	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}

	min, err := stats.Min(values)
	if err != nil {
		return ValueSummary{}, err
	}
	max, err := stats.Max(values)
	if err != nil {
		return ValueSummary{}, err
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return ValueSummary{}, err
	}

	return ValueSummary{Count: len(values), Min: min, Max: max, Mean: mean}, nil
}
