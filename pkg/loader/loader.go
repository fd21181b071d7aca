// Package loader pushes trip records into the graph store.
package loader

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// GraphWriter is the subset of graph operations the loader needs.
type GraphWriter interface {
	EnsureLocation(ctx context.Context, zone int64) error
	CreateTrip(ctx context.Context, rec models.TripRecord) error
}

// Loader writes trip records one statement at a time.
type Loader struct {
	logger ectologger.Logger
}

// New creates a new loader.
func New(logger ectologger.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load writes each record in order as three round trips: merge the pickup
// location, merge the dropoff location, create the TRIP relationship.
// Returns the number of records fully processed. On failure the writes for
// prior records remain committed; processing stops at the failing record
// and there is no rollback.
func (l *Loader) Load(ctx context.Context, w GraphWriter, records []models.TripRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "loader.Loader.Load")
	defer span.End()

	for i, rec := range records {
		if err := w.EnsureLocation(ctx, rec.PickupZone); err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
		if err := w.EnsureLocation(ctx, rec.DropoffZone); err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
		if err := w.CreateTrip(ctx, rec); err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
	}

	l.logger.WithContext(ctx).WithField("records", len(records)).Info("Loaded trip records into graph")

	return len(records), nil
}
