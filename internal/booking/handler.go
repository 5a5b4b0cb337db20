package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/devcrafthub/client-portal/internal/auth"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Getter looks up a persisted booking scoped to its owner.
type Getter interface {
	GetByID(ctx context.Context, ownerID, id string) (*Record, error)
}

// Handler serves booking retrieval for signed-in clients.
type Handler struct {
	bookings Getter
	logger   *logging.Logger
}

func NewHandler(bookings Getter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{bookings: bookings, logger: logger}
}

// GetBooking returns one of the signed-in client's bookings.
// GET /api/portal/bookings/{bookingID}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	clientID, ok := auth.ClientIDFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	bookingID := strings.TrimSpace(chi.URLParam(r, "bookingID"))
	if bookingID == "" {
		jsonError(w, "missing bookingID", http.StatusBadRequest)
		return
	}

	rec, err := h.bookings.GetByID(r.Context(), clientID, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error("booking lookup failed", "booking_id", bookingID, "error", err)
		jsonError(w, "could not load booking", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
