package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/billrecon/reconciler/internal/api"
	"github.com/billrecon/reconciler/internal/config"
	"github.com/billrecon/reconciler/internal/domain"
	"github.com/billrecon/reconciler/internal/ingestion"
	"github.com/billrecon/reconciler/internal/logging"
	"github.com/billrecon/reconciler/internal/mockdata"
	"github.com/billrecon/reconciler/internal/reconciliation"
	"github.com/billrecon/reconciler/internal/repository"
)

func main() {
	cfg := config.LoadOrEnvWithPath(getenv("CONFIG_PATH", "config.yaml"))
	logger := logging.New(cfg.Observability.Logging)
	log := logger.With("component", "server")

	if err := run(cfg, logger); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	log := logger.With("component", "server")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults, err := cfg.Reconciliation.Options()
	if err != nil {
		return fmt.Errorf("reconciliation config: %w", err)
	}

	log.Info("initializing database", "path", cfg.Storage.DatabasePath)
	db, err := repository.InitDB(ctx, cfg.Storage.DatabasePath, logger.With("component", "repository"))
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer db.Close()

	// Create repositories.
	intakeRepo := repository.NewIntakeRepo(db)
	postingRepo := repository.NewPostingRepo(db)
	batchRepo := repository.NewBatchRepo(db)

	// Create services.
	reconSvc := reconciliation.NewService(intakeRepo, postingRepo, logger)
	ingestionSvc := ingestion.NewService(batchRepo, intakeRepo, postingRepo, logger)

	// Seed ledgers if DB is empty.
	count, err := intakeRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count intake payments: %w", err)
	}
	if count == 0 {
		log.Info("database is empty, seeding ledgers")
		if err := seed(ctx, intakeRepo, postingRepo, log); err != nil {
			log.Warn("failed to seed ledgers", "error", err)
		}
	} else {
		log.Info("database already seeded", "intake_payments", count)
	}

	router := api.NewRouter(api.Deps{
		Reconciler: reconSvc,
		Ingestion:  ingestionSvc,
		Intake:     intakeRepo,
		Posting:    postingRepo,
		Server:     cfg.Server,
		Defaults:   defaults,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			"addr", "http://localhost:"+cfg.Server.Port,
			"api", "/api/v1",
			"max_range_days", cfg.Server.MaxRangeDays,
			"synthetic_fallback", cfg.Server.SyntheticFallback)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seed loads testdata/intake.json and testdata/posting.json, or generates
// a month of synthetic ledgers when the files are missing.
func seed(ctx context.Context, intakeRepo *repository.IntakeRepo, postingRepo *repository.PostingRepo, log *slog.Logger) error {
	var intake []domain.IntakeRow
	var posting []domain.PostingRow

	dir, err := findTestdataDir()
	if err == nil {
		if err = readJSON(filepath.Join(dir, "intake.json"), &intake); err == nil {
			err = readJSON(filepath.Join(dir, "posting.json"), &posting)
		}
	}
	if err != nil {
		log.Info("testdata not available, generating synthetic ledgers", "reason", err)
		to := domain.CalendarDay(time.Now().In(domain.IST))
		ds := mockdata.Generate(mockdata.Options{Seed: 42, From: to.AddDate(0, 0, -30), To: to})
		intake, posting = ds.Intake, ds.Posting
	} else {
		log.Info("loaded testdata", "dir", dir)
	}

	nIntake, err := intakeRepo.BulkInsert(ctx, intake, nil)
	if err != nil {
		return fmt.Errorf("seed intake: %w", err)
	}
	nPosting, err := postingRepo.BulkInsert(ctx, posting, nil)
	if err != nil {
		return fmt.Errorf("seed posting: %w", err)
	}
	log.Info("seeded ledgers", "intake", nIntake, "posting", nPosting)
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

func findTestdataDir() (string, error) {
	candidates := []string{"testdata"}
	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata"),
			filepath.Join(dir, "..", "..", "testdata"),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", errors.New("testdata directory not found")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
