package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mishakov/blog_backend/internal/models"
)

// UpsertRefreshToken overwrites the single refresh row for the user.
// The row is keyed by user_id, so concurrent writers for the same user
// collapse to last-write-wins on one row.
func (r *GormRepo) UpsertRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	row := models.RefreshToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "created_at", "expires_at"}),
	}).Create(&row).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, userID uuid.UUID) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}
	return &row, nil
}
