// Package identity wraps the external credential verification service.
// The console never sees passwords beyond handing them to a provider;
// a verified identity is all that comes back.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/pkg/config"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// Identity is a verified operator identity.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// Provider verifies operator credentials. Wrong credentials surface as
// ErrInvalidCredentials; an unreachable provider as ErrAuthUnavailable
// so callers can distinguish the two on the sign-in form.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
}

// HTTPProvider talks to the remote identity service.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewHTTPProvider builds a provider client from configuration.
func NewHTTPProvider(cfg config.IdentityConfig, logger *zap.Logger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn verifies credentials against the remote provider.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	payload, err := json.Marshal(signInRequest{Email: email, Password: password})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode sign-in payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("identity provider unreachable", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAuthUnavailable.Code, appErrors.ErrAuthUnavailable.Status, appErrors.ErrAuthUnavailable.Message)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var id Identity
		if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrAuthUnavailable.Code, appErrors.ErrAuthUnavailable.Status, "decode sign-in response")
		}
		if id.Subject == "" {
			return nil, appErrors.Clone(appErrors.ErrAuthUnavailable, "provider returned no subject")
		}
		if id.Email == "" {
			id.Email = email
		}
		return &id, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, appErrors.Wrap(
			fmt.Errorf("provider responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			appErrors.ErrAuthUnavailable.Code,
			appErrors.ErrAuthUnavailable.Status,
			appErrors.ErrAuthUnavailable.Message,
		)
	}
}
