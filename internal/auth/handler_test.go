package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

type fakeProvider struct {
	sess  session.Session
	err   error
	token string
}

func (f *fakeProvider) SignUp(context.Context, string, string, string) (session.Session, error) {
	return f.sess, f.err
}

func (f *fakeProvider) SignIn(context.Context, string, string) (session.Session, error) {
	return f.sess, f.err
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.token = ""
	return nil
}

func (f *fakeProvider) Token() string { return f.token }

func jordan() session.Session {
	return session.Session{Authenticated: true, UserID: "user-1", DisplayName: "Jordan Smith", Email: "jordan@example.com"}
}

func TestSignInAppliesSessionToManager(t *testing.T) {
	provider := &fakeProvider{sess: jordan(), token: "tok-1"}
	manager := session.NewManager(logging.New("error"))
	h := NewHandler(provider, manager, nil, logging.New("error"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"jordan@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.Token)
	assert.True(t, manager.Current().Authenticated)
}

func TestSignInInvalidCredentials(t *testing.T) {
	provider := &fakeProvider{err: ErrInvalidCredentials}
	manager := session.NewManager(logging.New("error"))
	h := NewHandler(provider, manager, nil, logging.New("error"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"jordan@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, manager.Current().Authenticated)
}

func TestSignUpRequiresAllFields(t *testing.T) {
	h := NewHandler(&fakeProvider{sess: jordan()}, nil, nil, logging.New("error"))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"jordan@example.com"}`))
	rec := httptest.NewRecorder()
	h.SignUp(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignUpCreatesSession(t *testing.T) {
	provider := &fakeProvider{sess: jordan(), token: "tok-new"}
	manager := session.NewManager(logging.New("error"))
	h := NewHandler(provider, manager, nil, logging.New("error"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"name":"Jordan Smith","email":"jordan@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	h.SignUp(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, manager.Current().Authenticated)
}

func TestSignOutClearsManager(t *testing.T) {
	provider := &fakeProvider{sess: jordan(), token: "tok-1"}
	manager := session.NewManager(logging.New("error"))
	manager.Apply(jordan())
	h := NewHandler(provider, manager, nil, logging.New("error"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	rec := httptest.NewRecorder()
	h.SignOut(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, manager.Current().Authenticated)
}
