// Package tripdata reads, cleans and stages yellow cab trip exports.
package tripdata

import (
	"context"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/parquet-go/parquet-go"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// requiredColumns must all be present in the source file; anything else in
// the file is dropped during the read.
var requiredColumns = []string{
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"PULocationID",
	"DOLocationID",
	"trip_distance",
	"fare_amount",
}

// Reader loads raw trip rows from parquet trip exports.
type Reader struct {
	logger ectologger.Logger
}

// NewReader creates a new trip file reader.
func NewReader(logger ectologger.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read loads every row of the parquet file at path. A file missing any of
// the required columns fails with a FormatError; no partial result is
// returned.
func (r *Reader) Read(ctx context.Context, path string) ([]models.RawTripRow, error) {
	ctx, span := tracing.StartSpan(ctx, "tripdata.Reader.Read")
	defer span.End()

	if err := r.checkColumns(path); err != nil {
		return nil, err
	}

	rows, err := parquet.ReadFile[models.RawTripRow](path)
	if err != nil {
		return nil, NewFormatErrorf(path, "failed to read trip rows: %v", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"path": path,
		"rows": len(rows),
	}).Debug("Read trip file")

	return rows, nil
}

func (r *Reader) checkColumns(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trip file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat trip file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return NewFormatErrorf(path, "not a parquet file: %v", err)
	}

	schema := pf.Schema()
	for _, col := range requiredColumns {
		if _, ok := schema.Lookup(col); !ok {
			return NewFormatErrorf(path, "missing required column %q", col)
		}
	}
	return nil
}
