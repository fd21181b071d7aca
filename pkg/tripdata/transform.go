package tripdata

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// TripTimeLayout is the timestamp layout used by the yellow cab exports.
const TripTimeLayout = "2006-01-02 15:04:05"

// Filter floors. Rows must strictly exceed both.
const (
	MinTripDistance = 0.1
	MinFareAmount   = 2.5
)

// loadZones are the location IDs eligible for loading (the Bronx zones).
// Trips are kept only when both endpoints are in this set.
var loadZones = map[int64]struct{}{
	3: {}, 18: {}, 20: {}, 31: {}, 32: {}, 46: {}, 47: {}, 51: {},
	58: {}, 59: {}, 60: {}, 69: {}, 78: {}, 81: {}, 94: {}, 119: {},
	126: {}, 136: {}, 147: {}, 159: {}, 167: {}, 168: {}, 169: {}, 174: {},
	182: {}, 183: {}, 184: {}, 185: {}, 199: {}, 200: {}, 208: {}, 212: {},
	213: {}, 220: {}, 235: {}, 240: {}, 241: {}, 242: {}, 247: {}, 248: {},
	250: {}, 254: {}, 259: {},
}

// ZoneEligible reports whether a location ID is in the load set.
func ZoneEligible(zone int64) bool {
	_, ok := loadZones[zone]
	return ok
}

// Transformer applies the cleaning and filtering rules to raw trip rows.
type Transformer struct {
	logger ectologger.Logger
}

// NewTransformer creates a new trip transformer.
func NewTransformer(logger ectologger.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform filters raw rows down to eligible trips and parses their
// timestamps. The input order of surviving rows is preserved. A timestamp
// that does not match TripTimeLayout fails the whole transform with a
// FormatError.
func (t *Transformer) Transform(ctx context.Context, rows []models.RawTripRow) ([]models.TripRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "tripdata.Transformer.Transform")
	defer span.End()

	records := make([]models.TripRecord, 0, len(rows))
	for _, row := range rows {
		if !ZoneEligible(row.PULocationID) || !ZoneEligible(row.DOLocationID) {
			continue
		}
		if row.TripDistance <= MinTripDistance {
			continue
		}
		if row.FareAmount <= MinFareAmount {
			continue
		}

		pickup, err := time.Parse(TripTimeLayout, row.PickupDatetime)
		if err != nil {
			return nil, NewFormatErrorf("", "invalid pickup datetime %q: %v", row.PickupDatetime, err)
		}
		dropoff, err := time.Parse(TripTimeLayout, row.DropoffDatetime)
		if err != nil {
			return nil, NewFormatErrorf("", "invalid dropoff datetime %q: %v", row.DropoffDatetime, err)
		}

		records = append(records, models.TripRecord{
			PickupZone:  row.PULocationID,
			DropoffZone: row.DOLocationID,
			Distance:    row.TripDistance,
			Fare:        row.FareAmount,
			PickupTime:  pickup,
			DropoffTime: dropoff,
		})
	}

	t.logger.WithContext(ctx).WithFields(map[string]any{
		"rows_in":     len(rows),
		"records_out": len(records),
	}).Debug("Transformed trip rows")

	return records, nil
}
