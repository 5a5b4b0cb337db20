package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Provider is the part of Client the handler needs.
type Provider interface {
	SignUp(ctx context.Context, name, email, password string) (session.Session, error)
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	SignOut(ctx context.Context) error
	Token() string
}

// Handler serves the sign-up, sign-in, and sign-out endpoints. Every
// outcome is applied to the session manager so subscribers (the page
// machine, the event stream) see the change.
type Handler struct {
	provider Provider
	manager  *session.Manager
	store    *SessionStore
	logger   *logging.Logger
}

// NewHandler creates an auth handler. store may be nil.
func NewHandler(provider Provider, manager *session.Manager, store *SessionStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{provider: provider, manager: manager, store: store, logger: logger}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token,omitempty"`
	Session session.Session `json:"session"`
}

// SignUp handles POST /api/auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}

	sess, err := h.provider.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondAuthFailure(w, "sign-up", err)
		return
	}
	h.applySession(r.Context(), sess)
	writeJSON(w, http.StatusCreated, authResponse{Token: h.provider.Token(), Session: sess})
}

// SignIn handles POST /api/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthFailure(w, "sign-in", err)
		return
	}
	h.applySession(r.Context(), sess)
	writeJSON(w, http.StatusOK, authResponse{Token: h.provider.Token(), Session: sess})
}

// SignOut handles POST /api/auth/signout. The local session is always
// cleared, even when revocation at the provider fails.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := h.provider.Token()
	if err := h.provider.SignOut(r.Context()); err != nil {
		h.logger.Warn("sign-out revocation failed", "error", err)
	}
	if h.store != nil && token != "" {
		if err := h.store.Delete(r.Context(), token); err != nil {
			h.logger.Warn("session cache delete failed", "error", err)
		}
	}
	if h.manager != nil {
		h.manager.Apply(session.Anonymous())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applySession(ctx context.Context, sess session.Session) {
	if h.manager != nil {
		h.manager.Apply(sess)
	}
	if h.store != nil {
		if token := h.provider.Token(); token != "" {
			if err := h.store.Save(ctx, token, sess); err != nil {
				h.logger.Warn("session cache save failed", "error", err)
			}
		}
	}
}

func (h *Handler) respondAuthFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusBadGateway, "identity provider unavailable")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
