// Package pipeline drives the trip load end to end: connect, read,
// transform, stage, push to the graph, with a bounded retry budget around
// the whole sequence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/models"
)

// State of the orchestrator.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateLoading    State = "loading"
	StateRetryWait  State = "retry_wait"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Writer is a session-scoped graph writer for one load.
type Writer interface {
	loader.GraphWriter
	Close(ctx context.Context) error
}

// Connection is one attempt's hold on the graph store.
type Connection interface {
	NewWriter(ctx context.Context) Writer
	Close(ctx context.Context) error
}

// Connector opens a verified connection to the graph store.
type Connector func(ctx context.Context) (Connection, error)

// Source reads raw rows from the input file.
type Source interface {
	Read(ctx context.Context, path string) ([]models.RawTripRow, error)
}

// Transformer filters and normalizes raw rows.
type Transformer interface {
	Transform(ctx context.Context, rows []models.RawTripRow) ([]models.TripRecord, error)
}

// Stager writes the staging artifact.
type Stager interface {
	Write(ctx context.Context, records []models.TripRecord, inputPath string) (string, error)
}

// RecordLoader pushes records through a graph writer.
type RecordLoader interface {
	Load(ctx context.Context, w loader.GraphWriter, records []models.TripRecord) (int, error)
}

// Config controls the load target and retry budget.
type Config struct {
	SourcePath  string
	MaxAttempts int
	RetryDelay  time.Duration
}

// Deps are the pipeline stages. Sleep is injectable so retry timing is
// testable without real delays; nil means a real context-aware sleep.
type Deps struct {
	Connect     Connector
	Source      Source
	Transformer Transformer
	Stager      Stager
	Loader      RecordLoader
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Result summarizes a finished run.
type Result struct {
	RunID         string
	State         State
	Attempts      int
	RecordsRead   int
	RecordsLoaded int
	StagingPath   string
}

// Orchestrator owns the retry loop. Execution is strictly linear: each
// attempt runs the stages once, and every attempt closes the connection it
// opened before the next attempt begins.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger ectologger.Logger
	state  State
}

// New creates an orchestrator in the Idle state.
func New(cfg Config, deps Deps, logger ectologger.Logger) *Orchestrator {
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run drives the load until it succeeds or the attempt budget is exhausted.
// Any failure inside an attempt counts against the same budget, including
// format errors that a retry cannot fix; the attempt number and error are
// logged either way.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID: uuid.NewString(),
		State: StateIdle,
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		o.state = StateConnecting

		log := o.logger.WithContext(ctx).WithFields(map[string]any{
			"run_id":       res.RunID,
			"attempt":      attempt,
			"max_attempts": o.cfg.MaxAttempts,
			"source":       o.cfg.SourcePath,
		})

		err := o.runAttempt(ctx, res)
		if err == nil {
			o.state = StateSucceeded
			res.State = StateSucceeded
			log.WithFields(map[string]any{
				"records_read":   res.RecordsRead,
				"records_loaded": res.RecordsLoaded,
			}).Infof("Data loaded successfully into the graph from %s", o.cfg.SourcePath)
			return res, nil
		}

		lastErr = err
		if graph.IsConnectionError(err) {
			log.WithError(err).Errorf("Could not connect to the graph store (attempt %d/%d)", attempt, o.cfg.MaxAttempts)
		} else {
			log.WithError(err).Errorf("Load attempt %d/%d failed", attempt, o.cfg.MaxAttempts)
		}

		if attempt == o.cfg.MaxAttempts {
			break
		}

		o.state = StateRetryWait
		if serr := o.deps.Sleep(ctx, o.cfg.RetryDelay); serr != nil {
			o.state = StateFailed
			res.State = StateFailed
			return res, serr
		}
	}

	o.state = StateFailed
	res.State = StateFailed
	return res, fmt.Errorf("load failed after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}

// runAttempt executes one full connect -> read -> transform -> stage -> load
// cycle. The connection and writer are released on every exit path.
func (o *Orchestrator) runAttempt(ctx context.Context, res *Result) (err error) {
	conn, err := o.deps.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	o.state = StateLoading

	rows, err := o.deps.Source.Read(ctx, o.cfg.SourcePath)
	if err != nil {
		return err
	}
	res.RecordsRead = len(rows)

	records, err := o.deps.Transformer.Transform(ctx, rows)
	if err != nil {
		return err
	}

	stagingPath, err := o.deps.Stager.Write(ctx, records, o.cfg.SourcePath)
	if err != nil {
		return err
	}
	res.StagingPath = stagingPath

	w := conn.NewWriter(ctx)
	defer func() {
		if cerr := w.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	n, err := o.deps.Loader.Load(ctx, w, records)
	res.RecordsLoaded = n
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
