package ports

import (
	"context"

	"meterload/domain/sheet"
)

// SheetRequest identifies the worksheet region to extract. Sheet == "" means
// the workbook's first sheet. SkipRows is the number of metadata rows above
// the header row; the last of them is read as the label row.
type SheetRequest struct {
	Path     string
	Sheet    string
	SkipRows int
}

// SheetSource loads one worksheet into the shared tabular structure the
// extractor works on.
type SheetSource interface {
	Load(ctx context.Context, req SheetRequest) (*sheet.Table, error)
}
