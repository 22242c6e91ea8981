package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"cashbook/internal/logger"
	"cashbook/internal/models"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. The write outlives request cancellation and
// its errors are logged, never returned, so auditing cannot fail the
// operation being audited.
func (s *auditService) Log(ctx context.Context, event AuditEvent) {
	entry := &models.AuditLog{
		UserID:       event.UserID,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		IPAddress:    event.IPAddress,
	}

	if event.Changes != nil {
		data, err := json.Marshal(event.Changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", event.Action)
			entry.Changes = "{}"
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", event.UserID,
			"action", event.Action,
			"resource_type", event.ResourceType,
			"resource_id", event.ResourceID,
		)
	}
}
