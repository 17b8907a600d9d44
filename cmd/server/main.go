// Package main is the entry point for the condorledger trading journal.
// It serves the sizing matrix calculator, the trade ledger API and Google
// sign-in behind a fixed allowlist.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"condorledger/internal/config"
	"condorledger/internal/database"
	"condorledger/internal/modules/auth"
	"condorledger/internal/modules/ledger"
	"condorledger/internal/modules/matrix"
	"condorledger/internal/modules/series"
	"condorledger/internal/server"
	"condorledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Pretty:   cfg.DevMode,
		FilePath: cfg.LogFile,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting condorledger")

	// Two databases: the trade ledger gets the maximum-safety profile,
	// sessions are disposable and get the speed profile.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	sessionsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "sessions.db"),
		Profile: database.ProfileCache,
		Name:    "sessions",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open sessions database")
	}
	defer sessionsDB.Close()

	if err := ledgerDB.ApplySchema(ledger.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply ledger schema")
	}
	if err := sessionsDB.ApplySchema(auth.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply sessions schema")
	}

	// Matrix reference tables: embedded defaults unless a YAML override is set
	tables, err := matrix.LoadTables(cfg.MatrixTablesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load matrix tables")
	}
	matrixEngine := matrix.NewEngine(tables, log)

	tradeRepo := ledger.NewRepository(ledgerDB.Conn(), log)
	grouper := series.NewGrouper()
	ledgerService := ledger.NewService(tradeRepo, grouper, log)

	sessionRepo := auth.NewSessionRepository(sessionsDB.Conn(), log)
	googleClient := auth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, log)
	authService := auth.NewService(googleClient, sessionRepo, cfg, cfg.SessionTTL, log)

	srv := server.New(server.Config{
		Log:           log,
		LedgerDB:      ledgerDB,
		SessionsDB:    sessionsDB,
		Config:        cfg,
		LedgerService: ledgerService,
		AuthService:   authService,
		MatrixEngine:  matrixEngine,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Background maintenance: purge dead sessions hourly, checkpoint the
	// ledger WAL nightly so the file never grows unbounded.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		if _, err := authService.PurgeExpired(); err != nil {
			log.Error().Err(err).Msg("Session purge failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule session purge")
	}
	if _, err := scheduler.AddFunc("0 3 * * *", func() {
		if err := ledgerDB.WALCheckpoint("TRUNCATE"); err != nil {
			log.Error().Err(err).Msg("WAL checkpoint failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule WAL checkpoint")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
