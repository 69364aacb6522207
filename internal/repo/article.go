package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mishakov/blog_backend/internal/models"
)

func (r *GormRepo) CreateArticle(ctx context.Context, article *models.Article) error {
	return r.DB.WithContext(ctx).Create(article).Error
}

func (r *GormRepo) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.DB.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (r *GormRepo) Articles(ctx context.Context, offset, limit int) (int64, []models.Article, error) {
	db := r.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Article{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Article
	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateArticle(ctx context.Context, article *models.Article) error {
	return r.DB.WithContext(ctx).Save(article).Error
}

func (r *GormRepo) DeleteArticle(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.Article{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}
