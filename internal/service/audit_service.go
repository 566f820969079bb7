package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/models"
)

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// AuditService records the mutation trail. A failed write never
// affects the mutation it describes; it is logged and dropped.
type AuditService struct {
	repo   auditStore
	logger *zap.Logger
}

// NewAuditService constructs an AuditService. A nil repo disables the
// trail, which keeps callers free of conditionals.
func NewAuditService(repo auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// RecordMutation persists one audit entry.
func (s *AuditService) RecordMutation(ctx context.Context, actor, action, recordID string) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditEntry{
		Actor:    actor,
		Action:   action,
		RecordID: recordID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			zap.String("action", action),
			zap.String("record_id", recordID),
			zap.Error(err),
		)
	}
}

// Enabled reports whether the trail is backed by storage.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// ListRecent returns the newest trail entries, up to limit.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if !s.Enabled() {
		return []models.AuditEntry{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}
