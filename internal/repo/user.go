package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mishakov/blog_backend/internal/models"
)

func (r *GormRepo) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("uuid = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser reports which unique column collided so the handler can
// tell the caller whether the name or the email is taken. Soft-deleted
// rows still occupy the unique indexes, so the checks run unscoped.
func (r *GormRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	db := r.DB.WithContext(ctx)

	if taken, err := userColumnTaken(db, "name", name); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrNameTaken
	}
	if taken, err := userColumnTaken(db, "email", email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		// a concurrent insert can slip past the checks above and trip
		// the unique index instead; recheck to keep the conflict reason
		if taken, checkErr := userColumnTaken(db, "name", name); checkErr == nil && taken {
			return nil, ErrNameTaken
		}
		if taken, checkErr := userColumnTaken(db, "email", email); checkErr == nil && taken {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func userColumnTaken(db *gorm.DB, column, value string) (bool, error) {
	var count int64
	err := db.Unscoped().Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	result := r.DB.WithContext(ctx).Where("uuid = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
