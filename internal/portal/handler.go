package portal

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/devcrafthub/client-portal/internal/auth"
	"github.com/devcrafthub/client-portal/internal/observability/metrics"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Handler serves the dashboard endpoints. Each signed-in client gets
// one Dashboard, created on first use.
type Handler struct {
	source   DataSource
	notifier Notifier
	metrics  *metrics.SiteMetrics
	logger   *logging.Logger

	mu         sync.Mutex
	dashboards map[string]*Dashboard
}

func NewHandler(source DataSource, notifier Notifier, siteMetrics *metrics.SiteMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		source:     source,
		notifier:   notifier,
		metrics:    siteMetrics,
		logger:     logger,
		dashboards: make(map[string]*Dashboard),
	}
}

func (h *Handler) dashboardFor(clientID string) *Dashboard {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.dashboards[clientID]
	if !ok {
		d = NewDashboard(clientID, h.source, h.notifier, h.metrics, h.logger)
		h.dashboards[clientID] = d
	}
	return d
}

// GetDashboard refreshes and returns the signed-in client's dashboard.
// GET /api/portal/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	clientID, ok := auth.ClientIDFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	snap := h.dashboardFor(clientID).Refresh(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// MarkMessageRead records a read receipt for one message.
// POST /api/portal/messages/{messageID}/read
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	clientID, ok := auth.ClientIDFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	messageID := strings.TrimSpace(chi.URLParam(r, "messageID"))
	if messageID == "" {
		jsonError(w, "missing messageID", http.StatusBadRequest)
		return
	}

	d := h.dashboardFor(clientID)
	if err := d.MarkMessageRead(r.Context(), messageID); err != nil {
		if err == ErrMessageNotFound {
			jsonError(w, "message not found", http.StatusNotFound)
			return
		}
		jsonError(w, "could not mark message as read", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
