package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
)

// userService mirrors identities established by the external identity provider.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// SyncUser upserts the display fields of an identity. Empty name or email
// never overwrite stored values.
func (s *userService) SyncUser(ctx context.Context, externalID, name, email string) (*models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "identity subject is required")
	}

	user := &models.User{
		ExternalID: externalID,
		Name:       strings.TrimSpace(name),
		Email:      strings.ToLower(strings.TrimSpace(email)),
	}

	var updates []string
	if user.Name != "" {
		updates = append(updates, "name")
	}
	if user.Email != "" {
		updates = append(updates, "email")
	}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}
	if len(updates) > 0 {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(append(updates, "updated_at")),
		}
	}

	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetUserByExternalID(ctx, externalID)
}

// GetUserByExternalID retrieves a user by identity subject.
func (s *userService) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
