package tripdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestReader_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	rows := []models.RawTripRow{
		{
			PickupDatetime:  "2022-03-01 10:00:00",
			DropoffDatetime: "2022-03-01 10:15:00",
			PULocationID:    3,
			DOLocationID:    18,
			TripDistance:    2.4,
			FareAmount:      9.5,
		},
		{
			PickupDatetime:  "2022-03-01 11:00:00",
			DropoffDatetime: "2022-03-01 11:30:00",
			PULocationID:    20,
			DOLocationID:    31,
			TripDistance:    5.1,
			FareAmount:      17.0,
		},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	got, err := NewReader(testLogger()).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReader_MissingColumn(t *testing.T) {
	type partialRow struct {
		PickupDatetime string `parquet:"tpep_pickup_datetime"`
		PULocationID   int64  `parquet:"PULocationID"`
	}

	path := filepath.Join(t.TempDir(), "partial.parquet")
	require.NoError(t, parquet.WriteFile(path, []partialRow{
		{PickupDatetime: "2022-03-01 10:00:00", PULocationID: 3},
	}))

	_, err := NewReader(testLogger()).Read(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(testLogger()).Read(context.Background(), filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.False(t, IsFormatError(err))
}

func TestReader_NotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	require.NoError(t, os.WriteFile(path, []byte("not a parquet file"), 0o644))

	_, err := NewReader(testLogger()).Read(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}
