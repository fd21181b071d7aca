package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tripdata"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeWriter struct {
	closes int
}

func (w *fakeWriter) EnsureLocation(context.Context, int64) error          { return nil }
func (w *fakeWriter) CreateTrip(context.Context, models.TripRecord) error { return nil }
func (w *fakeWriter) Close(context.Context) error {
	w.closes++
	return nil
}

type fakeConn struct {
	writer *fakeWriter
	closes int
}

func (c *fakeConn) NewWriter(context.Context) Writer { return c.writer }
func (c *fakeConn) Close(context.Context) error {
	c.closes++
	return nil
}

type fakeSource struct {
	rows []models.RawTripRow
	err  error
}

func (s *fakeSource) Read(context.Context, string) ([]models.RawTripRow, error) {
	return s.rows, s.err
}

type fakeTransformer struct {
	records []models.TripRecord
	err     error
}

func (t *fakeTransformer) Transform(context.Context, []models.RawTripRow) ([]models.TripRecord, error) {
	return t.records, t.err
}

type fakeStager struct {
	path string
	err  error
}

func (s *fakeStager) Write(context.Context, []models.TripRecord, string) (string, error) {
	return s.path, s.err
}

type fakeLoader struct {
	calls int
	err   error
}

func (l *fakeLoader) Load(_ context.Context, _ loader.GraphWriter, records []models.TripRecord) (int, error) {
	l.calls++
	if l.err != nil {
		return 0, l.err
	}
	return len(records), nil
}

type harness struct {
	conns    []*fakeConn
	source   *fakeSource
	loader   *fakeLoader
	sleeps   []time.Duration
	failures int
	attempts int
}

// connector fails the first h.failures attempts with a ConnectionError,
// then hands out a fresh connection per attempt.
func (h *harness) connect(context.Context) (Connection, error) {
	h.attempts++
	if h.attempts <= h.failures {
		return nil, &graph.ConnectionError{URI: "bolt://localhost:7687", Err: errors.New("refused")}
	}
	conn := &fakeConn{writer: &fakeWriter{}}
	h.conns = append(h.conns, conn)
	return conn, nil
}

func (h *harness) sleep(_ context.Context, d time.Duration) error {
	h.sleeps = append(h.sleeps, d)
	return nil
}

func newOrchestrator(h *harness, maxAttempts int) *Orchestrator {
	if h.source == nil {
		h.source = &fakeSource{rows: make([]models.RawTripRow, 3)}
	}
	if h.loader == nil {
		h.loader = &fakeLoader{}
	}
	return New(
		Config{
			SourcePath:  "yellow_tripdata_2022-03.parquet",
			MaxAttempts: maxAttempts,
			RetryDelay:  10 * time.Second,
		},
		Deps{
			Connect:     h.connect,
			Source:      h.source,
			Transformer: &fakeTransformer{records: make([]models.TripRecord, 2)},
			Stager:      &fakeStager{path: "/var/lib/neo4j/import/yellow_tripdata_2022-03.csv"},
			Loader:      h.loader,
			Sleep:       h.sleep,
		},
		testLogger(),
	)
}

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	h := &harness{}
	orch := newOrchestrator(h, 10)

	res, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, StateSucceeded, orch.State())
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 3, res.RecordsRead)
	assert.Equal(t, 2, res.RecordsLoaded)
	assert.Equal(t, "/var/lib/neo4j/import/yellow_tripdata_2022-03.csv", res.StagingPath)
	assert.Empty(t, h.sleeps)
}

func TestRun_SucceedsAfterConnectionRetries(t *testing.T) {
	h := &harness{failures: 3}
	orch := newOrchestrator(h, 10)

	res, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, 4, res.Attempts)

	// One sleep per failed attempt, fixed delay.
	require.Len(t, h.sleeps, 3)
	for _, d := range h.sleeps {
		assert.Equal(t, 10*time.Second, d)
	}
}

func TestRun_ExhaustsBudget(t *testing.T) {
	h := &harness{failures: 1000}
	orch := newOrchestrator(h, 10)

	res, err := orch.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateFailed, orch.State())
	assert.Equal(t, 10, res.Attempts)
	assert.Equal(t, 10, h.attempts)

	// No sleep after the final attempt.
	assert.Len(t, h.sleeps, 9)
}

func TestRun_ClosesConnectionEveryAttempt(t *testing.T) {
	h := &harness{loader: &fakeLoader{err: errors.New("write failed")}}
	orch := newOrchestrator(h, 4)

	_, err := orch.Run(context.Background())
	require.Error(t, err)

	require.Len(t, h.conns, 4)
	for _, conn := range h.conns {
		assert.Equal(t, 1, conn.closes)
		assert.Equal(t, 1, conn.writer.closes)
	}
}

func TestRun_FormatErrorCountsAgainstBudget(t *testing.T) {
	// Retrying cannot fix a malformed file, but it still burns the budget.
	h := &harness{source: &fakeSource{err: tripdata.NewFormatErrorf("yellow_tripdata_2022-03.parquet", "missing required column %q", "fare_amount")}}
	orch := newOrchestrator(h, 10)

	res, err := orch.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 10, res.Attempts)
	assert.Equal(t, 0, h.loader.calls)
	assert.Zero(t, res.RecordsRead)
}

func TestRun_CancelledDuringRetryWait(t *testing.T) {
	h := &harness{failures: 1000}
	orch := New(
		Config{SourcePath: "trips.parquet", MaxAttempts: 10, RetryDelay: time.Millisecond},
		Deps{
			Connect:     h.connect,
			Source:      &fakeSource{},
			Transformer: &fakeTransformer{},
			Stager:      &fakeStager{},
			Loader:      &fakeLoader{},
			// default context-aware sleep
		},
		testLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := orch.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, res.Attempts)
}
