package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessr/adapters/postgres"
	"assessr/app"
	"assessr/internal"
	"assessr/internal/config"
	apperrors "assessr/internal/errors"
	"assessr/internal/metrics"
	"assessr/internal/migration"
	"assessr/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase opens the PostgreSQL pool and brings the schema up to date
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(appConfig.Database.MaxOpenConns)
	db.SetMaxIdleConns(appConfig.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	presets, err := config.LoadPresets(appConfig.Analytics.PresetsFile)
	if err != nil {
		log.Fatalf("Failed to load comparables presets: %v", err)
	}

	observer := metrics.NewObserver()

	ratioRepo := postgres.NewRatioRepository(db)
	parcelRepo := postgres.NewParcelRepository(db)
	featureRepo := postgres.NewFeatureRepository(db)
	appealRepo := postgres.NewAppealRepository(db)

	server, err := ui.NewServer(ui.Services{
		Ratios:      app.NewRatioService(ratioRepo, appConfig.Analytics, observer, logger),
		Comparables: app.NewComparablesService(featureRepo, presets, appConfig.Analytics, observer, logger),
		Notices:     app.NewNoticeService(parcelRepo, logger),
		Appeals:     app.NewAppealService(appealRepo, parcelRepo, logger),
		Parcels:     app.NewParcelService(parcelRepo),
	}, ui.ServerConfig{
		ExportRatePerSecond: appConfig.Export.RatePerSecond,
		ExportBurst:         appConfig.Export.Burst,
	}, observer, logger)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           ui.NewApp(server, db, observer, ui.AppConfig{Profiling: appConfig.Profiling.Enabled}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	go func() {
		logger.Info("Starting assessr on port %s (presets: %v)", appConfig.Server.Port, presets.Names())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
}
