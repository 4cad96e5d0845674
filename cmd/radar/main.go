// Package main is the entry point for the dropout risk radar.
//
// The binary runs one or more pipeline stages selected by flags:
//
//	radar --init-db                  seed the store with sample data
//	radar --train                    fit the model and save the artifact
//	radar --predict                  write today's risk snapshot
//	radar --notify                   generate and deliver alerts
//	radar --serve                    run the dashboard API
//	radar --train --predict --notify run stages in pipeline order
//
// With no flags the full pipeline runs: train, predict, notify.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edusignal/dropout-radar/config"
	"github.com/edusignal/dropout-radar/internal/application/command"
	"github.com/edusignal/dropout-radar/internal/application/query"
	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/infrastructure/artifact"
	"github.com/edusignal/dropout-radar/internal/infrastructure/external/smtp"
	"github.com/edusignal/dropout-radar/internal/infrastructure/persistence/postgres"
	"github.com/edusignal/dropout-radar/internal/infrastructure/persistence/redis"
	httpapi "github.com/edusignal/dropout-radar/internal/interface/http"
	"github.com/edusignal/dropout-radar/internal/ml"
	"github.com/edusignal/dropout-radar/pkg/logger"
)

type flags struct {
	initDB  bool
	train   bool
	predict bool
	notify  bool
	serve   bool
}

func parseFlags() flags {
	var f flags
	flag.BoolVar(&f.initDB, "init-db", false, "initialize the schema and seed sample data")
	flag.BoolVar(&f.train, "train", false, "train the risk model")
	flag.BoolVar(&f.predict, "predict", false, "write today's risk snapshot")
	flag.BoolVar(&f.notify, "notify", false, "generate and deliver alerts")
	flag.BoolVar(&f.serve, "serve", false, "run the dashboard API server")
	flag.Parse()

	if !f.initDB && !f.train && !f.predict && !f.notify && !f.serve {
		f.train = true
		f.predict = true
		f.notify = true
	}
	return f
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()
	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.App.LogLevel),
		AddCaller: cfg.IsDevelopment(),
	})
	log.Info("starting dropout risk radar",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("version", cfg.App.Version))

	conn, err := postgres.NewConnection(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if err := conn.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// Repositories.
	studentRepo := postgres.NewStudentRepository(conn)
	recordsRepo := postgres.NewRecordsRepository(conn)
	assessmentRepo := postgres.NewAssessmentRepository(conn)
	notificationRepo := postgres.NewNotificationRepository(conn)
	userRepo := postgres.NewUserRepository(conn)

	// Optional dashboard cache. A broken Redis degrades to direct reads.
	var cache *redis.SnapshotCache
	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		cache, err = redis.NewSnapshotCache(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, dashboard cache disabled", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	artifacts := artifact.NewFileStore(cfg.Model.ArtifactPath)

	forestCfg := ml.DefaultForestConfig()
	forestCfg.NumTrees = cfg.Model.NumTrees
	forestCfg.Seed = cfg.Model.Seed

	var channel notification.Channel = notification.NopChannel{}
	if !cfg.Notify.Disabled {
		channel = smtp.NewSender(smtp.Config{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Sender:   cfg.Notify.Sender,
			Password: cfg.Notify.SMTPPassword,
		})
	}

	// Handlers.
	trainer := command.NewTrainModelHandler(studentRepo, recordsRepo, artifacts, forestCfg, log)
	assessor := command.NewAssessRiskHandler(studentRepo, recordsRepo, artifacts, trainer, assessmentRepo, invalidator(cache), log)
	notifier := command.NewGenerateNotificationsHandler(studentRepo, assessmentRepo, notificationRepo, channel, log)
	seeder := command.NewSeedSampleDataHandler(studentRepo, recordsRepo, userRepo, log)

	now := time.Now().In(cfg.App.Location)

	if f.initDB {
		result, err := seeder.Execute(ctx, command.SeedSampleDataCommand{
			NumStudents: cfg.Model.SampleStudents,
			Seed:        cfg.Model.Seed,
			Now:         now,
		})
		if err != nil {
			return fmt.Errorf("sample data seeding failed: %w", err)
		}
		log.Info("sample data ready",
			logger.StudentCount(result.Students),
			logger.Int("attendance_events", result.AttendanceEvents),
			logger.Int("test_scores", result.TestScores),
			logger.Int("fee_payments", result.FeePayments))
	}

	if f.train {
		result, _, err := trainer.Execute(ctx, command.TrainModelCommand{Now: now})
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
		log.Info("model trained",
			logger.Int("samples", result.SampleCount),
			logger.Float64("holdout_accuracy", result.HoldoutAccuracy),
			logger.Float64("positive_rate", result.PositiveRate),
			logger.Bool("synthetic_data", result.UsedSyntheticData))
	}

	if f.predict {
		result, err := assessor.Execute(ctx, command.AssessRiskCommand{Now: now})
		if err != nil {
			return fmt.Errorf("risk assessment failed: %w", err)
		}
		log.Info("assessment complete",
			logger.StudentCount(result.Assessed),
			logger.Bool("retrained", result.Retrained))
	}

	if f.notify {
		result, err := notifier.Execute(ctx, command.GenerateNotificationsCommand{Now: now})
		if err != nil {
			return fmt.Errorf("notification generation failed: %w", err)
		}
		log.Info("notifications processed",
			logger.Int("mentor_alerts", result.MentorAlerts),
			logger.Int("guardian_alerts", result.GuardianAlerts),
			logger.Int("delivered", result.Delivered),
			logger.Int("failed", result.Failed))
	}

	if f.serve {
		return serve(ctx, cfg, studentRepo, assessmentRepo, userRepo, cache, log)
	}
	return nil
}

// invalidator adapts the optional cache: a nil *SnapshotCache must become a
// nil interface, not a typed nil.
func invalidator(cache *redis.SnapshotCache) command.SnapshotInvalidator {
	if cache == nil {
		return nil
	}
	return cache
}

func serve(
	ctx context.Context,
	cfg *config.Config,
	students *postgres.StudentRepository,
	assessments *postgres.AssessmentRepository,
	users *postgres.UserRepository,
	cache *redis.SnapshotCache,
	log *logger.Logger,
) error {
	var snapshotCache query.SnapshotCache
	if cache != nil {
		snapshotCache = cache
	}

	server := httpapi.NewServer(
		httpapi.Config{
			Host:           cfg.HTTP.Host,
			Port:           cfg.HTTP.Port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		},
		httpapi.Dependencies{
			Dashboard:   query.NewGetDashboardHandler(assessments, students, snapshotCache, log),
			StudentRisk: query.NewGetStudentRiskHandler(assessments, students),
			Users:       users,
			Logger:      log,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("shutdown completed")
	return nil
}
