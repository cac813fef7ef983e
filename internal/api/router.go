package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/billrecon/reconciler/internal/config"
	"github.com/billrecon/reconciler/internal/ingestion"
	"github.com/billrecon/reconciler/internal/reconciliation"
	"github.com/billrecon/reconciler/internal/repository"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Reconciler *reconciliation.Service
	Ingestion  *ingestion.Service
	Intake     *repository.IntakeRepo
	Posting    *repository.PostingRepo
	Server     config.ServerConfig
	Defaults   reconciliation.Options
	Logger     *slog.Logger
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("component", "api")
	if d.Server.MaxRangeDays <= 0 {
		d.Server.MaxRangeDays = 90
	}
	h := &Handlers{
		recon:    d.Reconciler,
		ingest:   d.Ingestion,
		intake:   d.Intake,
		posting:  d.Posting,
		server:   d.Server,
		defaults: d.Defaults,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Reconciliation.
		r.Post("/reconciliation", h.Reconcile)
		r.Get("/reconciliation/summary", h.GetSummary)
		r.Get("/reconciliation/exceptions", h.ListExceptions)
		r.Get("/reconciliation/export", h.ExportCSV)

		// Imports.
		r.Post("/imports", h.Import)
		r.Get("/imports", h.ListImports)

		// Raw ledgers.
		r.Get("/payments/{source}", h.ListPayments)
	})

	return r
}
