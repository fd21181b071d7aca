// Package events handles event emission for load run lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Event types emitted by the pipeline.
const (
	EventLoadCompleted = "load.completed"
	EventLoadFailed    = "load.failed"
)

// Emitter handles event emission for fern
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitLoadCompleted emits a load completed event
func (e *Emitter) EmitLoadCompleted(ctx context.Context, run *models.LoadRun) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLoadCompleted")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType:     EventLoadCompleted,
		RunID:         run.ID,
		SourceFile:    run.SourceFile,
		RecordsRead:   run.RecordsRead,
		RecordsLoaded: run.RecordsLoaded,
		Attempts:      run.Attempts,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit load.completed event")
		return err
	}

	return nil
}

// EmitLoadFailed emits a load failed event
func (e *Emitter) EmitLoadFailed(ctx context.Context, run *models.LoadRun) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLoadFailed")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType:     EventLoadFailed,
		RunID:         run.ID,
		SourceFile:    run.SourceFile,
		RecordsRead:   run.RecordsRead,
		RecordsLoaded: run.RecordsLoaded,
		Attempts:      run.Attempts,
		Error:         run.Error,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit load.failed event")
		return err
	}

	return nil
}
