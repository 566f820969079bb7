package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/identity"
	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/internal/service"
	"github.com/noah-isme/student-console-api/internal/session"
	"github.com/noah-isme/student-console-api/pkg/response"
)

type stubProvider struct{}

func (stubProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return &identity.Identity{Subject: "op-1", Email: email}, nil
}

// stubCell wraps a MemoryCell but forces a fixed outcome on Status.
type stubCell struct {
	*session.MemoryCell
	status  session.Status
	err     error
	cleared int
}

func (s *stubCell) Status(ctx context.Context, token string) (session.Status, *session.Session, error) {
	return s.status, nil, s.err
}

func (s *stubCell) Clear(ctx context.Context, token string) error {
	s.cleared++
	return s.MemoryCell.Clear(ctx, token)
}

func guardedRouter(t *testing.T, cell session.Cell) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := service.NewAuthService(stubProvider{}, cell, validator.New(), nil, zap.NewNop(), service.AuthConfig{
		Secret: "test_secret",
		TTL:    time.Hour,
	})
	resp, err := authSvc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "pw"})
	require.NoError(t, err)

	rendered := 0
	r := gin.New()
	r.GET("/records", Guard(authSvc, cell, "/login", zap.NewNop()), func(c *gin.Context) {
		rendered++
		claims := c.MustGet(ContextClaimsKey).(*models.SessionClaims)
		response.JSON(c, http.StatusOK, gin.H{"subject": claims.Subject, "rendered": rendered})
	})
	return r, resp.SessionToken
}

func TestGuardAllowsAuthenticated(t *testing.T) {
	cell := session.NewMemoryCell(nil)
	r, token := guardedRouter(t, cell)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "op-1")
}

func TestGuardDeniesMissingToken(t *testing.T) {
	r, _ := guardedRouter(t, session.NewMemoryCell(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "/login", envelope.Meta["redirect"])
}

func TestGuardRedirectsBrowserNavigation(t *testing.T) {
	r, _ := guardedRouter(t, session.NewMemoryCell(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGuardDeniesForgedToken(t *testing.T) {
	r, _ := guardedRouter(t, session.NewMemoryCell(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardClearsStaleSession(t *testing.T) {
	// Login activates the inner cell, then the stub reports anonymous:
	// the token parsed but the session is gone.
	cell := &stubCell{MemoryCell: session.NewMemoryCell(nil), status: session.StatusAnonymous}
	r, token := guardedRouter(t, cell)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, cell.cleared)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "/login", envelope.Meta["redirect"])
}

func TestGuardUnresolvedStatusDeniesWithoutRedirect(t *testing.T) {
	cell := &stubCell{MemoryCell: session.NewMemoryCell(nil), status: session.StatusUnknown}
	r, token := guardedRouter(t, cell)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "AUTH_PENDING", envelope.Error.Code)
	assert.Nil(t, envelope.Meta["redirect"], "unresolved status must not bounce the caller")
}

func TestGuardFailsClosedOnCellError(t *testing.T) {
	cell := &stubCell{MemoryCell: session.NewMemoryCell(nil), err: context.DeadlineExceeded}
	r, token := guardedRouter(t, cell)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
