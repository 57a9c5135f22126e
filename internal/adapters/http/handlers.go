package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// Pinger checks connectivity to a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	ingestSvc  ports.IngestService
	metricsSvc ports.MetricsService
	jobs       ports.JobRepository
	summaries  ports.SummaryRepository
	provider   ports.MarketDataProvider
	db         Pinger
	logger     *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(
	ingestSvc ports.IngestService,
	metricsSvc ports.MetricsService,
	jobs ports.JobRepository,
	summaries ports.SummaryRepository,
	provider ports.MarketDataProvider,
	db Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		ingestSvc:  ingestSvc,
		metricsSvc: metricsSvc,
		jobs:       jobs,
		summaries:  summaries,
		provider:   provider,
		db:         db,
		logger:     logger.With("component", "http_handler"),
	}
}

// Health returns service health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	dbStatus := "healthy"
	providerStatus := "healthy"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(checkCtx); err != nil {
			dbStatus = "unhealthy"
			status = "degraded"
		}
	}

	if err := h.provider.Ping(checkCtx); err != nil {
		providerStatus = "unhealthy"
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"database":        dbStatus,
		"provider":        providerStatus,
		"open_aggregates": h.ingestSvc.OpenAggregates(),
	})
}

// SummaryResponse represents a daily summary in the API response
type SummaryResponse struct {
	Symbol      string `json:"symbol"`
	TradingDate string `json:"trading_date"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	Volume      int64  `json:"volume"`
	VWAP        string `json:"vwap,omitempty"`
	BarCount    int    `json:"bar_count"`
	FirstBarAt  string `json:"first_bar_at"`
	LastBarAt   string `json:"last_bar_at"`
}

func toSummaryResponse(s *domain.DailySummary) SummaryResponse {
	resp := SummaryResponse{
		Symbol:      s.Symbol.String(),
		TradingDate: s.TradingDate.String(),
		Open:        s.Open.String(),
		High:        s.High.String(),
		Low:         s.Low.String(),
		Close:       s.Close.String(),
		Volume:      s.Volume.Int64(),
		BarCount:    s.BarCount,
		FirstBarAt:  s.FirstBarAt.Time().Format(time.RFC3339),
		LastBarAt:   s.LastBarAt.Time().Format(time.RFC3339),
	}
	if s.VWAP != nil {
		resp.VWAP = s.VWAP.String()
	}
	return resp
}

// GetSummary returns the daily summary for a symbol-day. While the day
// is still collecting this is a live preview; after close it is the
// stored summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	symbol, date, ok := h.parseSymbolDate(w, r)
	if !ok {
		return
	}

	summary, err := h.ingestSvc.Summary(r.Context(), symbol, date)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// ListSummaries returns recent daily summaries for a symbol
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.NewSymbol(r.PathValue("symbol"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	limit := parseLimit(r, 30)

	summaries, err := h.summaries.ListBySymbol(r.Context(), symbol, limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	items := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		items[i] = toSummaryResponse(s)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol.String(),
		"summaries": items,
	})
}

// CloseDay completes collection for a symbol-day and persists its
// summary and resampled timeframes
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	symbol, date, ok := h.parseSymbolDate(w, r)
	if !ok {
		return
	}

	summary, err := h.ingestSvc.CloseDay(r.Context(), symbol, date)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// ListJobs returns the most recent ingestion jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	jobs, err := h.jobs.ListRecent(r.Context(), limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

// GetJob returns a single ingestion job by id
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// GetMetrics returns operational metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metricsSvc.GetMetrics(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

func (h *Handler) parseSymbolDate(w http.ResponseWriter, r *http.Request) (domain.Symbol, domain.TradingDate, bool) {
	symbol, err := domain.NewSymbol(r.PathValue("symbol"))
	if err != nil {
		handleDomainError(w, err)
		return domain.Symbol{}, domain.TradingDate{}, false
	}

	date, err := domain.ParseTradingDate(r.PathValue("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return domain.Symbol{}, domain.TradingDate{}, false
	}

	return symbol, date, true
}

func parseLimit(r *http.Request, def int) int {
	limit := def
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	return limit
}
