package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/loadrun"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
	"github.com/Ramsey-B/fern/pkg/tripdata"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.New(cfg.AppName, cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	var runRepo *loadrun.Repository
	if cfg.AuditEnabled {
		db, err := database.Connect(ctx, database.ConnectionConfig{
			Host:            cfg.DatabaseHost,
			Port:            cfg.DatabasePort,
			UserName:        cfg.DatabaseUserName,
			Password:        cfg.DatabasePassword,
			Name:            cfg.DatabaseName,
			SSLMode:         cfg.DatabaseSSLMode,
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to audit database")
			os.Exit(1)
		}
		defer db.Close()

		driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
		if err != nil {
			logger.WithError(err).Error("Failed to create migration driver")
			os.Exit(1)
		}
		ms := database.NewMigrationService(logger, cfg.DatabaseMigrationFolderPath)
		if err := ms.Migrate(cfg.DatabaseName, driver); err != nil {
			logger.WithError(err).Error("Failed to migrate audit database")
			os.Exit(1)
		}

		runRepo = loadrun.NewRepository(db, logger)
	}

	gcfg := graph.Config{
		Host:     cfg.GraphDBHost,
		Port:     cfg.GraphDBPort,
		Username: cfg.GraphDBUser,
		Password: cfg.GraphDBPassword,
	}
	connect := func(ctx context.Context) (pipeline.Connection, error) {
		client, err := graph.Connect(ctx, gcfg, logger)
		if err != nil {
			return nil, err
		}
		return graphConnection{client}, nil
	}

	orch := pipeline.New(
		pipeline.Config{
			SourcePath:  cfg.TripFilePath,
			MaxAttempts: cfg.LoadMaxAttempts,
			RetryDelay:  cfg.LoadRetryDelay,
		},
		pipeline.Deps{
			Connect:     connect,
			Source:      tripdata.NewReader(logger),
			Transformer: tripdata.NewTransformer(logger),
			Stager:      tripdata.NewStagingWriter(cfg.StagingDir, logger),
			Loader:      loader.New(logger),
		},
		logger,
	)

	started := time.Now().UTC()
	result, runErr := orch.Run(ctx)

	run := &models.LoadRun{
		ID:            result.RunID,
		SourceFile:    cfg.TripFilePath,
		Status:        models.LoadRunSucceeded,
		Attempts:      result.Attempts,
		RecordsRead:   result.RecordsRead,
		RecordsLoaded: result.RecordsLoaded,
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
	}
	if runErr != nil {
		run.Status = models.LoadRunFailed
		run.Error = runErr.Error()
	}

	// The run context may already be cancelled; report with a fresh one.
	reportCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report(reportCtx, logger, emitter, runRepo, run)

	if runErr != nil {
		logger.WithError(runErr).Errorf("Load failed after %d attempts", result.Attempts)
		os.Exit(1)
	}
}

func report(ctx context.Context, logger ectologger.Logger, emitter *events.Emitter, runRepo *loadrun.Repository, run *models.LoadRun) {
	if emitter != nil {
		var err error
		if run.Status == models.LoadRunSucceeded {
			err = emitter.EmitLoadCompleted(ctx, run)
		} else {
			err = emitter.EmitLoadFailed(ctx, run)
		}
		if err != nil {
			logger.WithError(err).Warn("Load event not published")
		}
	}
	if runRepo != nil {
		if err := runRepo.Insert(ctx, run); err != nil {
			logger.WithError(err).Warn("Load run not recorded in audit database")
		}
	}
}

// graphConnection adapts graph.Client to the pipeline's connection contract.
type graphConnection struct {
	*graph.Client
}

func (c graphConnection) NewWriter(ctx context.Context) pipeline.Writer {
	return c.Client.NewWriter(ctx)
}
