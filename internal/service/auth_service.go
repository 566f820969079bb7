package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/identity"
	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/internal/session"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// AuthService drives sign-in and sign-out: the identity provider
// verifies credentials, this service issues the session token and
// writes the auth-status cell.
type AuthService struct {
	provider  identity.Provider
	cell      session.Cell
	validator *validator.Validate
	logger    *zap.Logger
	auditor   *AuditService
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(provider identity.Provider, cell session.Cell, validate *validator.Validate, auditor *AuditService, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		provider:  provider,
		cell:      cell,
		validator: validate,
		logger:    logger,
		auditor:   auditor,
		config:    config,
	}
}

// Login verifies credentials and activates a session. Bad credentials
// and an unreachable provider surface as distinct errors; neither
// advances the session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	id, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.TTL)
	token, err := s.signToken(id, issuedAt, expiresAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	if err := s.cell.Activate(ctx, session.Session{
		Token:     token,
		Subject:   id.Subject,
		Email:     id.Email,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate session")
	}

	s.auditor.RecordMutation(ctx, id.Subject, models.AuditActionLogin, "")

	return &models.LoginResponse{
		SessionToken: token,
		ExpiresIn:    int64(s.config.TTL.Seconds()),
		IssuedAt:     issuedAt,
		Operator: models.OperatorInfo{
			Subject: id.Subject,
			Email:   id.Email,
		},
	}, nil
}

// Logout clears the session behind the token. Unknown tokens clear
// silently: sign-out is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	actor := ""
	if claims, err := s.ParseToken(token); err == nil {
		actor = claims.Subject
	}

	if err := s.cell.Clear(ctx, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}

	if actor != "" {
		s.auditor.RecordMutation(ctx, actor, models.AuditActionLogout, "")
	}
	return nil
}

// ParseToken parses and validates a session token returning the claims.
func (s *AuthService) ParseToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

func (s *AuthService) signToken(id *identity.Identity, issuedAt, expiresAt time.Time) (string, error) {
	claims := &models.SessionClaims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   id.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
