package loadrun

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var columns = []string{
	"id", "source_file", "status", "attempts",
	"records_read", "records_loaded", "error",
	"started_at", "finished_at",
}

// Repository persists load run audit rows
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new load run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert records the outcome of one run.
func (r *Repository) Insert(ctx context.Context, run *models.LoadRun) error {
	ctx, span := tracing.StartSpan(ctx, "loadrun.Repository.Insert")
	defer span.End()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("load_runs")
	ib.Cols(columns...)
	ib.Values(
		run.ID, run.SourceFile, run.Status, run.Attempts,
		run.RecordsRead, run.RecordsLoaded, run.Error,
		run.StartedAt, run.FinishedAt,
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"run_id":      run.ID,
			"source_file": run.SourceFile,
		}).Error("Failed to insert load run")
		return fmt.Errorf("failed to insert load run: %w", err)
	}

	return nil
}

// FindRecent returns the most recent runs, newest first.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]models.LoadRun, error) {
	ctx, span := tracing.StartSpan(ctx, "loadrun.Repository.FindRecent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("load_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.LoadRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find recent load runs")
		return nil, fmt.Errorf("failed to find recent load runs: %w", err)
	}
	return runs, nil
}

// FindBySourceFile returns every run recorded for one source file, newest
// first. Useful for spotting re-loads, which duplicate TRIP relationships.
func (r *Repository) FindBySourceFile(ctx context.Context, sourceFile string) ([]models.LoadRun, error) {
	ctx, span := tracing.StartSpan(ctx, "loadrun.Repository.FindBySourceFile")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("load_runs")
	sb.Where(sb.Equal("source_file", sourceFile))
	sb.OrderBy("started_at DESC")

	query, args := sb.Build()
	var runs []models.LoadRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("source_file", sourceFile).Error("Failed to find load runs by source file")
		return nil, fmt.Errorf("failed to find load runs by source file: %w", err)
	}
	return runs, nil
}
