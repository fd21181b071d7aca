package tripdata

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func testRecord() models.TripRecord {
	return models.TripRecord{
		PickupZone:  3,
		DropoffZone: 18,
		Distance:    2.4,
		Fare:        9.5,
		PickupTime:  time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC),
		DropoffTime: time.Date(2022, 3, 1, 10, 15, 0, 0, time.UTC),
	}
}

func TestStagingPath(t *testing.T) {
	w := NewStagingWriter("/var/lib/neo4j/import", testLogger())

	path := w.StagingPath("yellow_tripdata_2022-03.parquet")
	assert.Equal(t, "/var/lib/neo4j/import/yellow_tripdata_2022-03.csv", path)

	t.Run("directory of the input is ignored", func(t *testing.T) {
		path := w.StagingPath("/data/incoming/yellow_tripdata_2022-03.parquet")
		assert.Equal(t, "/var/lib/neo4j/import/yellow_tripdata_2022-03.csv", path)
	})
}

func TestStagingWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewStagingWriter(dir, testLogger())

	path, err := w.Write(context.Background(), []models.TripRecord{testRecord()}, "yellow_tripdata_2022-03.parquet")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"tpep_pickup_datetime", "tpep_dropoff_datetime",
		"PULocationID", "DOLocationID", "trip_distance", "fare_amount",
	}, rows[0])
	assert.Equal(t, []string{
		"2022-03-01 10:00:00", "2022-03-01 10:15:00", "3", "18", "2.4", "9.5",
	}, rows[1])
}

func TestStagingWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewStagingWriter(dir, testLogger())
	records := []models.TripRecord{testRecord(), testRecord()}

	_, err := w.Write(context.Background(), records, "trips.parquet")
	require.NoError(t, err)

	path, err := w.Write(context.Background(), records[:1], "trips.parquet")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2) // header + the single record from the second write
}

func TestStagingWrite_BadDirectory(t *testing.T) {
	w := NewStagingWriter("/nonexistent-staging-dir", testLogger())

	_, err := w.Write(context.Background(), []models.TripRecord{testRecord()}, "trips.parquet")
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}
