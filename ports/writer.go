package ports

import (
	"context"

	"meterload/domain/meter"
)

// ReadingWriter appends one meter's normalized readings to the target table.
// The whole batch is written within a single transaction; on error nothing is
// kept. An empty batch returns (0, nil) without touching the database.
type ReadingWriter interface {
	Append(ctx context.Context, readings []meter.Reading) (int, error)
}
