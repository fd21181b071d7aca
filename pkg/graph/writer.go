package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Statement templates for the trip load. These three statements and their
// idempotency properties are a wire-level contract: Location merges are safe
// to repeat, the TRIP create is not.
const (
	ensureLocationCypher = `MERGE (l:Location {name: $name})`

	createTripCypher = `MATCH (p:Location {name: $pickup}), (d:Location {name: $dropoff}) ` +
		`CREATE (p)-[r:TRIP {distance: $distance, fare: $fare, pickup_dt: $pickup_dt, dropoff_dt: $dropoff_dt}]->(d)`
)

// Writer issues trip-load statements over a single session. Each call is one
// auto-commit round trip; no transaction spans multiple calls.
type Writer struct {
	session neo4j.SessionWithContext
	logger  ectologger.Logger
}

// Close releases the session.
func (w *Writer) Close(ctx context.Context) error {
	return w.session.Close(ctx)
}

// EnsureLocation merges the Location node for a zone. Repeating the call for
// the same zone leaves exactly one node.
func (w *Writer) EnsureLocation(ctx context.Context, zone int64) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Writer.EnsureLocation")
	defer span.End()

	if err := w.run(ctx, ensureLocationCypher, map[string]any{"name": zone}); err != nil {
		return fmt.Errorf("failed to merge location %d: %w", zone, err)
	}
	return nil
}

// CreateTrip creates a TRIP relationship between the two Location nodes.
// CREATE is intentional here: re-running a load over the same file produces
// duplicate TRIP edges while Location nodes stay unique. Loads are expected
// to run against fresh files.
func (w *Writer) CreateTrip(ctx context.Context, rec models.TripRecord) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Writer.CreateTrip")
	defer span.End()

	params := map[string]any{
		"pickup":     rec.PickupZone,
		"dropoff":    rec.DropoffZone,
		"distance":   rec.Distance,
		"fare":       rec.Fare,
		"pickup_dt":  rec.PickupTime,
		"dropoff_dt": rec.DropoffTime,
	}
	if err := w.run(ctx, createTripCypher, params); err != nil {
		return fmt.Errorf("failed to create trip %d -> %d: %w", rec.PickupZone, rec.DropoffZone, err)
	}
	return nil
}

func (w *Writer) run(ctx context.Context, cypher string, params map[string]any) error {
	result, err := w.session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}
