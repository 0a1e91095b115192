package repository

import (
	"context"

	"shopadmin/internal/model"

	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.AuthToken) error
	FindByDigest(ctx context.Context, digest string) (*model.AuthToken, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.AuthToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *tokenRepository) FindByDigest(ctx context.Context, digest string) (*model.AuthToken, error) {
	var token model.AuthToken
	if err := GetDB(ctx, r.db).Where("digest = ?", digest).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
