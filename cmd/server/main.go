package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"addrparser/internal/batch"
	"addrparser/internal/config"
	"addrparser/internal/handler"
	"addrparser/internal/logging"
	"addrparser/internal/notify/noop"
	sesnotify "addrparser/internal/notify/ses"
	"addrparser/internal/port"
	"addrparser/internal/repository/hris"
	"addrparser/internal/repository/postgres"
	"addrparser/internal/router"
	"addrparser/internal/service"
	s3storage "addrparser/internal/storage/s3"
)

// @title           Address Parser API
// @version         1.0
// @description     Batch normalization of Vietnamese addresses against the HRIS parse procedure.
// @BasePath        /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	closer := logging.Setup(&cfg.Log)
	defer closer.Close()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hrisDB, err := hris.NewDB(&cfg.HRIS)
	if err != nil {
		return fmt.Errorf("failed to connect to HRIS database: %w", err)
	}
	defer hrisDB.Close()

	// Optional app database and export archive
	var (
		appDB      *sqlx.DB
		exportRepo port.ExportRepository
		storage    port.ObjectStorage
	)
	if cfg.DB.Enabled {
		appDB, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to app database: %w", err)
		}
		defer appDB.Close()
		exportRepo = postgres.NewExportRecordRepo(appDB)
	}
	if cfg.Archive.Enabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	notifier, err := newNotifier(ctx, &cfg.Notify)
	if err != nil {
		return err
	}

	// Initialize adapters
	parser := hris.NewAddressParser(hrisDB)
	directory := hris.NewEmployeeDirectory(hrisDB)

	// Initialize services
	driver := batch.NewDriver(parser, batch.DriverConfig{
		PaceDelay:   cfg.Batch.PaceDelay,
		CallTimeout: cfg.Batch.CallTimeout,
	})
	lookupSvc := service.NewLookupService(parser, directory)
	exportSvc := service.NewExportService(storage, exportRepo, service.ExportConfig{
		ArchiveEnabled: cfg.Archive.Enabled,
		Bucket:         cfg.S3.Bucket,
		KeyPrefix:      cfg.Archive.KeyPrefix,
		PresignExpiry:  cfg.S3.PresignExpiry,
	})
	sessionSvc := service.NewSessionService(driver, directory, exportSvc, notifier, service.SessionConfig{
		MaxItems:     cfg.Batch.MaxItems,
		MaxFileBytes: cfg.Intake.MaxFileBytes(),
		SessionTTL:   cfg.Batch.SessionTTL,
	})
	defer sessionSvc.Shutdown()
	janitor := service.NewSessionJanitor(sessionSvc, cfg.Batch.JanitorInterval)

	// Initialize handlers
	var appPinger handler.Pinger
	if appDB != nil {
		appPinger = appDB
	}
	handlers := router.Handlers{
		Health:  handler.NewHealthHandler(hrisDB, appPinger),
		Lookup:  handler.NewLookupHandler(lookupSvc),
		Session: handler.NewSessionHandler(sessionSvc, cfg.Intake.MaxFileBytes()),
		Export:  handler.NewExportHandler(sessionSvc, exportSvc),
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Setup(handlers, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		janitor.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newNotifier(ctx context.Context, cfg *config.NotifyConfig) (port.BatchNotifier, error) {
	switch cfg.Provider {
	case "ses":
		n, err := sesnotify.NewSESNotifier(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		return n, nil
	default:
		return noop.NewNoopNotifier(), nil
	}
}
