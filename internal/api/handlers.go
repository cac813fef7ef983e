package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billrecon/reconciler/internal/config"
	"github.com/billrecon/reconciler/internal/domain"
	"github.com/billrecon/reconciler/internal/ingestion"
	"github.com/billrecon/reconciler/internal/mockdata"
	"github.com/billrecon/reconciler/internal/reconciliation"
	"github.com/billrecon/reconciler/internal/repository"
)

const (
	dataSourceDatabase  = "database"
	dataSourceSynthetic = "synthetic"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	recon    *reconciliation.Service
	ingest   *ingestion.Service
	intake   *repository.IntakeRepo
	posting  *repository.PostingRepo
	server   config.ServerConfig
	defaults reconciliation.Options
	logger   *slog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps an error to its HTTP status.
func (h *Handlers) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsDataSource(err):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// reportResponse tags a report with where its data came from.
type reportResponse struct {
	DataSource string `json:"data_source"`
	*domain.ReconciliationReport
}

// reconcile runs a reconciliation against the stores, switching to
// synthetic rows when a store is down and the fallback is enabled.
func (h *Handlers) reconcile(ctx context.Context, req reconciliation.Request) (*reportResponse, error) {
	report, err := h.recon.Reconcile(ctx, req)
	if err == nil {
		return &reportResponse{DataSource: dataSourceDatabase, ReconciliationReport: report}, nil
	}
	if !domain.IsDataSource(err) || !h.server.SyntheticFallback {
		return nil, err
	}

	h.logger.Warn("data source unavailable, using synthetic data", "error", err)
	ds := mockdata.Generate(mockdata.Options{Seed: req.From.Unix(), From: req.From, To: req.To})
	report, err = h.recon.ReconcileRows(req, ds.Intake, ds.Posting)
	if err != nil {
		return nil, err
	}
	return &reportResponse{DataSource: dataSourceSynthetic, ReconciliationReport: report}, nil
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Reconcile ---

func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body reconcileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req, err := h.requestFromBody(body)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp, err := h.reconcile(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// --- GetSummary ---

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestFromQuery(r.URL.Query())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	resp, err := h.reconcile(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data_source":  resp.DataSource,
		"run_id":       resp.RunID,
		"from":         resp.From.Format(dayLayout),
		"to":           resp.To.Format(dayLayout),
		"evaluated_at": resp.EvaluatedAt,
		"summary":      resp.Summary,
		"by_mode":      resp.ByMode,
	})
}

// --- ListExceptions ---

func (h *Handlers) ListExceptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	direction, err := parseDirection(q.Get("direction"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	requiresAction, err := parseOptionalBool("requires_action", q.Get("requires_action"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	req, err := h.requestFromQuery(q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp, err := h.reconcile(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	out := make([]domain.Exception, 0, len(resp.Exceptions))
	for _, e := range resp.Exceptions {
		if direction != "" && e.Direction != direction {
			continue
		}
		if requiresAction != nil && e.RequiresAction != *requiresAction {
			continue
		}
		out = append(out, e)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data_source": resp.DataSource,
		"run_id":      resp.RunID,
		"exceptions":  out,
		"total":       len(out),
	})
}

// --- ExportCSV ---

func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestFromQuery(r.URL.Query())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	resp, err := h.reconcile(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	filename := "reconciliation_" + resp.From.Format(dayLayout) + "_" + resp.To.Format(dayLayout) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Data-Source", resp.DataSource)
	w.WriteHeader(http.StatusOK)
	if err := writeReportCSV(w, resp.ReconciliationReport); err != nil {
		h.logger.Error("write csv", "error", err)
	}
}

// --- Import ---

func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	// Accept multipart form.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	sourceParam := r.FormValue("source")
	format := r.FormValue("format")
	if sourceParam == "" || format == "" {
		h.writeError(w, http.StatusBadRequest, "source and format are required")
		return
	}
	source, err := ingestion.ParseSource(sourceParam)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingest.IngestFile(r.Context(), data, source, format)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// --- ListImports ---

func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	batches, err := h.ingest.Batches(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if batches == nil {
		batches = []domain.ImportBatch{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"imports": batches, "total": len(batches)})
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	source, err := ingestion.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	q := r.URL.Query()
	from, err := optionalDay("from", q.Get("from"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	to, err := optionalDay("to", q.Get("to"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	mode, err := parseMode(q.Get("payment_mode"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	filter := repository.ListFilter{
		From:  from,
		To:    to,
		Mode:  mode,
		Page:  parseIntDefault(q.Get("page"), 1),
		Limit: parseIntDefault(q.Get("limit"), 50),
	}

	var payments any
	var total int
	if source == domain.SourceIntake {
		rows, n, err := h.intake.List(r.Context(), filter)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		if rows == nil {
			rows = []domain.IntakeRow{}
		}
		payments, total = rows, n
	} else {
		rows, n, err := h.posting.List(r.Context(), filter)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		if rows == nil {
			rows = []domain.PostingRow{}
		}
		payments, total = rows, n
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"source":   source,
		"payments": payments,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}
