package portal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/devcrafthub/client-portal/pkg/logging"
)

const fetchLatencyMetric = "devcraft_portal_dashboard_fetch_latency_seconds"

// StatsHandler serves aggregate account stats for one client plus a
// latency snapshot of the dashboard fetch path.
type StatsHandler struct {
	db       *sql.DB
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// StatsResponse contains the aggregates shown on the account page.
type StatsResponse struct {
	ClientID        string  `json:"client_id"`
	ActiveProjects  int64   `json:"active_projects"`
	UnpaidInvoices  int64   `json:"unpaid_invoices"`
	AmountDueCents  int64   `json:"amount_due_cents"`
	UnreadMessages  int64   `json:"unread_messages"`
	FetchP90Ms      float64 `json:"fetch_p90_ms"`
	FetchP95Ms      float64 `json:"fetch_p95_ms"`
	FetchSampleSize int64   `json:"fetch_sample_size"`
}

// NewStatsHandler creates a stats handler. gatherer may be nil, in
// which case the default prometheus gatherer is used.
func NewStatsHandler(db *sql.DB, gatherer prometheus.Gatherer, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{db: db, gatherer: gatherer, logger: logger}
}

// GetStats returns the client's account aggregates.
// GET /portal/clients/{clientID}/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(chi.URLParam(r, "clientID"))
	if clientID == "" {
		jsonError(w, "missing clientID", http.StatusBadRequest)
		return
	}
	if h.db == nil {
		jsonError(w, "stats disabled", http.StatusServiceUnavailable)
		return
	}

	activeProjects, err := h.countActiveProjects(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to count projects", "client_id", clientID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	unpaidInvoices, amountDue, err := h.sumUnpaidInvoices(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to sum invoices", "client_id", clientID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	unreadMessages, err := h.countUnreadMessages(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to count messages", "client_id", clientID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	latency := snapshotFetchLatency(h.gatherer)

	resp := StatsResponse{
		ClientID:        clientID,
		ActiveProjects:  activeProjects,
		UnpaidInvoices:  unpaidInvoices,
		AmountDueCents:  amountDue,
		UnreadMessages:  unreadMessages,
		FetchP90Ms:      latency.P90Ms,
		FetchP95Ms:      latency.P95Ms,
		FetchSampleSize: latency.Total,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *StatsHandler) countActiveProjects(ctx context.Context, clientID string) (int64, error) {
	query := `SELECT COUNT(*) FROM projects WHERE client_id = $1 AND status <> 'Completed'`
	var count int64
	if err := h.db.QueryRowContext(ctx, query, clientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("portal: count projects: %w", err)
	}
	return count, nil
}

func (h *StatsHandler) sumUnpaidInvoices(ctx context.Context, clientID string) (int64, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM invoices
		WHERE client_id = $1 AND status <> 'Paid'
	`
	var count, total int64
	if err := h.db.QueryRowContext(ctx, query, clientID).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("portal: sum invoices: %w", err)
	}
	return count, total, nil
}

func (h *StatsHandler) countUnreadMessages(ctx context.Context, clientID string) (int64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE client_id = $1 AND is_read = FALSE`
	var count int64
	if err := h.db.QueryRowContext(ctx, query, clientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("portal: count messages: %w", err)
	}
	return count, nil
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// FetchLatencySnapshot summarizes the dashboard fetch histogram.
type FetchLatencySnapshot struct {
	Total int64
	P90Ms float64
	P95Ms float64
}

func snapshotFetchLatency(gatherer prometheus.Gatherer) FetchLatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return FetchLatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == fetchLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return FetchLatencySnapshot{}
	}

	// Aggregate histograms across resources, keeping only status="ok".
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		if !hasLabel(metric, "status", "ok") {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return FetchLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	p90 := histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper)
	p95 := histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper)

	return FetchLatencySnapshot{
		Total: int64(sampleCount),
		P90Ms: p90 * 1000.0,
		P95Ms: p95 * 1000.0,
	}
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper float64
	var prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}

		// If we can't interpolate, return the bucket upper bound.
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}

		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}

		lower := prevUpper
		return lower + fraction*(upper-lower)
	}

	return uppers[len(uppers)-1]
}
