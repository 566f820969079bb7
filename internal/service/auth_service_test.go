package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/identity"
	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/internal/session"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

type mockProvider struct {
	identity *identity.Identity
	err      error
	calls    int
}

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}

func newAuthService(provider identity.Provider, cell session.Cell) *AuthService {
	return NewAuthService(provider, cell, validator.New(), nil, zap.NewNop(), AuthConfig{
		Secret: "test_secret",
		TTL:    time.Hour,
		Issuer: "student-console",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	provider := &mockProvider{identity: &identity.Identity{Subject: "op-1", Email: "admin@school.test"}}
	cell := session.NewMemoryCell(nil)
	svc := newAuthService(provider, cell)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)
	assert.Equal(t, "op-1", resp.Operator.Subject)

	status, s, err := cell.Status(context.Background(), resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAuthenticated, status)
	assert.Equal(t, "op-1", s.Subject)

	claims, err := svc.ParseToken(resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "admin@school.test", claims.Email)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	provider := &mockProvider{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "")}
	cell := session.NewMemoryCell(nil)
	svc := newAuthService(provider, cell)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "bad"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginProviderUnreachable(t *testing.T) {
	provider := &mockProvider{err: appErrors.Clone(appErrors.ErrAuthUnavailable, "")}
	svc := newAuthService(provider, session.NewMemoryCell(nil))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAuthUnavailable), "provider failure is distinct from bad credentials")
}

func TestAuthServiceLoginRejectsMalformedPayload(t *testing.T) {
	provider := &mockProvider{}
	svc := newAuthService(provider, session.NewMemoryCell(nil))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, 0, provider.calls, "provider is never asked about malformed payloads")
}

func TestAuthServiceLogout(t *testing.T) {
	provider := &mockProvider{identity: &identity.Identity{Subject: "op-1", Email: "admin@school.test"}}
	cell := session.NewMemoryCell(nil)
	svc := newAuthService(provider, cell)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.test", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.SessionToken))
	status, _, err := cell.Status(context.Background(), resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAnonymous, status)

	// sign-out is idempotent
	require.NoError(t, svc.Logout(context.Background(), resp.SessionToken))
}

func TestAuthServiceParseTokenRejectsForgery(t *testing.T) {
	provider := &mockProvider{identity: &identity.Identity{Subject: "op-1", Email: "a@b.com"}}
	svc := newAuthService(provider, session.NewMemoryCell(nil))

	other := NewAuthService(provider, session.NewMemoryCell(nil), validator.New(), nil, zap.NewNop(), AuthConfig{
		Secret: "different_secret",
		TTL:    time.Hour,
	})
	resp, err := other.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.SessionToken)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
