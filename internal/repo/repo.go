package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrNameTaken       = errors.New("name already taken")
	ErrEmailTaken      = errors.New("email already taken")
	ErrArticleNotFound = errors.New("article not found")
)

type GormRepo struct {
	DB *gorm.DB
}
