package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"meterload/adapters/excel"
	"meterload/adapters/postgres"
	"meterload/app"
	"meterload/domain/sheet"
	"meterload/internal/config"
	"meterload/internal/errors"
	"meterload/internal/samplebook"
	"meterload/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "meterload",
		Short: "Load water meter totaliser readings from a workbook into TimescaleDB",
	}

	rootCmd.AddCommand(
		newLoadCmd(),
		newPreviewCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sheetFlags are shared by load and preview. Sentinel defaults mean
// "fall back to the meters file, then the environment configuration".
type sheetFlags struct {
	sheet      string
	skipRows   int
	dateColumn string
	meters     string
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name (default: METER_SHEET or the first sheet)")
	cmd.Flags().IntVar(&f.skipRows, "skip-rows", -1, "Metadata rows above the header row (default: METER_SKIP_ROWS)")
	cmd.Flags().StringVar(&f.dateColumn, "date-column", "", "Header of the timestamp column (default: METER_DATE_COLUMN)")
	cmd.Flags().StringVar(&f.meters, "meters", "", "YAML file mapping meter columns to topics (default: built-in mapping)")
}

func (f *sheetFlags) apply(cfg *config.Config, mapping *config.Mapping) {
	if f.sheet == "" {
		f.sheet = cfg.Sheet.Sheet
	}
	if f.skipRows < 0 {
		f.skipRows = cfg.Sheet.SkipRows
	}
	if f.dateColumn == "" {
		f.dateColumn = mapping.DateColumn
	}
	if f.dateColumn == "" {
		f.dateColumn = cfg.Sheet.DateColumn
	}
}

func newLoadCmd() *cobra.Command {
	flags := &sheetFlags{}
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "load [workbook]",
		Short: "Extract meter readings and append them to the readings table",
		Long: `Read totaliser readings from an .xlsx or .csv workbook and bulk-insert
them into the configured TimescaleDB table, one transaction per meter.

Rows with unparseable dates or values are dropped. A meter whose column is
missing or whose label row does not match is skipped; the remaining meters
still load.

Example: meterload load "Water Meter Readings.xlsx" --sheet "2024" --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), args[0], flags, dryRun)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and report without writing to the database")

	return cmd
}

func newPreviewCmd() *cobra.Command {
	flags := &sheetFlags{}

	cmd := &cobra.Command{
		Use:   "preview [workbook]",
		Short: "Inspect a workbook and check the configured meter columns",
		Long: `Open the workbook, show its shape after skipping metadata rows, and
verify that each configured meter column exists and its label row entry
matches the mapping. No database connection is made.

Example: meterload preview "Water Meter Readings.xlsx" --meters meters.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), args[0], flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func newSampleCmd() *cobra.Command {
	var rows int
	var seed int64
	var sheetName string

	cmd := &cobra.Command{
		Use:   "sample [path]",
		Short: "Write a demo workbook in the layout this tool ingests",
		Long: `Generate a deterministic demo workbook (.xlsx, or .csv by extension) with
the metadata block, label row, header row and daily totaliser rows the
loader expects, including serial-formatted dates and annotation rows.

Example: meterload sample demo.xlsx --rows 60 && meterload load demo.xlsx --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := samplebook.DefaultConfig()
			cfg.Rows = rows
			cfg.Seed = seed
			if sheetName != "" {
				cfg.Sheet = sheetName
			}

			wb, err := samplebook.Generate(cfg)
			if err != nil {
				return err
			}
			if err := samplebook.Write(args[0], wb, cfg.Sheet); err != nil {
				return fmt.Errorf("failed to write sample workbook: %w", err)
			}
			fmt.Printf("Wrote %s: %d data rows, meters M1 and M2, skip rows 4.\n", args[0], len(wb.Rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", samplebook.DefaultConfig().Rows, "Days of readings to generate")
	cmd.Flags().Int64Var(&seed, "seed", samplebook.DefaultConfig().Seed, "Random seed for deterministic output")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name for xlsx output")

	return cmd
}

func runLoad(ctx context.Context, workbook string, flags *sheetFlags, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mapping, err := config.LoadMeters(flags.meters)
	if err != nil {
		return err
	}
	flags.apply(cfg, mapping)

	var writer ports.ReadingWriter
	if !dryRun {
		db, err := sqlx.Connect("postgres", cfg.Database.ConnectionURL())
		if err != nil {
			return errors.DatabaseError("failed to connect to database", err)
		}
		defer db.Close()
		writer = postgres.NewReadingRepository(db, cfg.Database.Schema, cfg.Database.Table)
	}

	loader := app.NewLoader(excel.NewSheetLoader(), writer)
	report, err := loader.Run(ctx, app.LoadRequest{
		Sheet:      ports.SheetRequest{Path: workbook, Sheet: flags.sheet, SkipRows: flags.skipRows},
		DateColumn: flags.dateColumn,
		Meters:     mapping.Meters,
		DryRun:     dryRun,
	})
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("%s: skipped (%v)\n", res.Meter.Column, res.Err)
			continue
		}
		if dryRun {
			fmt.Printf("%s: %d readings staged, %d rows dropped (dry run)\n",
				res.Meter.Column, res.Extracted, res.Dropped)
			continue
		}
		fmt.Printf("%s: %d readings inserted, %d rows dropped\n",
			res.Meter.Column, res.Inserted, res.Dropped)
	}
	if skipped := report.SkippedMeters(); skipped > 0 {
		fmt.Printf("%d of %d meters skipped.\n", skipped, len(report.Results))
	}

	if dryRun {
		fmt.Printf("Dry run complete in %.2fs; nothing written.\n", report.Elapsed.Seconds())
		return nil
	}
	if total := report.TotalInserted(); total > 0 {
		fmt.Printf("Inserted %d rows into %s.\n", total, targetName(cfg))
	} else {
		fmt.Println("No rows to insert after cleaning; nothing written.")
	}
	return nil
}

func runPreview(ctx context.Context, workbook string, flags *sheetFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mapping, err := config.LoadMeters(flags.meters)
	if err != nil {
		return err
	}
	flags.apply(cfg, mapping)

	tbl, err := excel.NewSheetLoader().Load(ctx, ports.SheetRequest{
		Path: workbook, Sheet: flags.sheet, SkipRows: flags.skipRows,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Workbook: %s\n", workbook)
	if flags.sheet != "" {
		fmt.Printf("Worksheet: %s\n", flags.sheet)
	} else {
		fmt.Println("Worksheet: (first sheet)")
	}
	fmt.Printf("Columns: %d, data rows: %d\n", len(tbl.Headers), len(tbl.Rows))
	for i, header := range tbl.Headers {
		if label := tbl.Label(i); label != "" {
			fmt.Printf("  %-16s %s\n", header, label)
		} else {
			fmt.Printf("  %s\n", header)
		}
	}

	if _, ok := tbl.ColumnIndex(flags.dateColumn); ok {
		fmt.Printf("Date column %q: found\n", flags.dateColumn)
	} else {
		fmt.Printf("Date column %q: MISSING\n", flags.dateColumn)
	}

	for _, def := range mapping.Meters {
		idx, ok := tbl.ColumnIndex(def.Column)
		if !ok {
			fmt.Printf("Meter %s: column MISSING\n", def.Column)
			continue
		}
		label := tbl.Label(idx)
		switch {
		case def.Label == "" || !tbl.HasLabels():
			fmt.Printf("Meter %s: found (label check disabled)\n", def.Column)
		case sheet.LabelsMatch(label, def.Label):
			fmt.Printf("Meter %s: found, label %q matches\n", def.Column, label)
		default:
			fmt.Printf("Meter %s: found, label MISMATCH (workbook %q, mapping %q)\n",
				def.Column, label, def.Label)
		}
	}
	return nil
}

func targetName(cfg *config.Config) string {
	if cfg.Database.Schema == "" {
		return cfg.Database.Table
	}
	return cfg.Database.Schema + "." + cfg.Database.Table
}
