package tripdata

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// stagingHeader matches the column order of the source file.
var stagingHeader = []string{
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"PULocationID",
	"DOLocationID",
	"trip_distance",
	"fare_amount",
}

// StagingWriter persists transformed records as a CSV copy in the graph
// database's import directory. The file is an operational artifact only;
// the pipeline never reads it back.
type StagingWriter struct {
	dir    string
	logger ectologger.Logger
}

// NewStagingWriter creates a staging writer rooted at dir.
func NewStagingWriter(dir string, logger ectologger.Logger) *StagingWriter {
	return &StagingWriter{dir: dir, logger: logger}
}

// StagingPath derives the staging file path from the input file name: same
// base name, .csv extension, under the staging directory.
func (w *StagingWriter) StagingPath(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(w.dir, base+".csv")
}

// Write serializes records to the staging path, header row included,
// overwriting any existing file. Returns the path written.
func (w *StagingWriter) Write(ctx context.Context, records []models.TripRecord, inputPath string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "tripdata.StagingWriter.Write")
	defer span.End()

	path := w.StagingPath(inputPath)
	f, err := os.Create(path)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}

	cw := csv.NewWriter(f)
	_ = cw.Write(stagingHeader)
	for _, rec := range records {
		_ = cw.Write([]string{
			rec.PickupTime.Format(TripTimeLayout),
			rec.DropoffTime.Format(TripTimeLayout),
			strconv.FormatInt(rec.PickupZone, 10),
			strconv.FormatInt(rec.DropoffZone, 10),
			strconv.FormatFloat(rec.Distance, 'f', -1, 64),
			strconv.FormatFloat(rec.Fare, 'f', -1, 64),
		})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return "", &IOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &IOError{Path: path, Err: err}
	}

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    path,
		"records": len(records),
	}).Debug("Wrote staging file")

	return path, nil
}
