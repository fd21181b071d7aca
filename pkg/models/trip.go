package models

import "time"

// RawTripRow is one row of a yellow cab trip export, holding only the
// columns the pipeline cares about. Any other column in the parquet file
// is dropped at read time.
type RawTripRow struct {
	PickupDatetime  string  `parquet:"tpep_pickup_datetime"`
	DropoffDatetime string  `parquet:"tpep_dropoff_datetime"`
	PULocationID    int64   `parquet:"PULocationID"`
	DOLocationID    int64   `parquet:"DOLocationID"`
	TripDistance    float64 `parquet:"trip_distance"`
	FareAmount      float64 `parquet:"fare_amount"`
}

// TripRecord is a cleaned trip that passed every filter. Records are built
// fresh by the transformer and never mutated afterwards.
type TripRecord struct {
	PickupZone  int64
	DropoffZone int64
	Distance    float64
	Fare        float64
	PickupTime  time.Time
	DropoffTime time.Time
}
