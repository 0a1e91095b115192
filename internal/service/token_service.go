package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"shopadmin/internal/cache"
	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	appErr "shopadmin/pkg/errors"
	"shopadmin/pkg/logger"
	"shopadmin/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenClaims is the payload of an issued bearer token. Clients treat the
// token as opaque; it stays valid only while its digest is on record.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenService mints bearer tokens and resolves them back to users.
type TokenService interface {
	Issue(ctx context.Context, user *model.User) (string, error)
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type tokenService struct {
	secret []byte
	tokens repository.TokenRepository
	users  repository.UserRepository
	cache  cache.TokenCache
	now    func() time.Time
}

// NewTokenService returns a TokenService. tokenCache may be nil.
func NewTokenService(secret string, tokens repository.TokenRepository, users repository.UserRepository, tokenCache cache.TokenCache) TokenService {
	return &tokenService{
		secret: []byte(secret),
		tokens: tokens,
		users:  users,
		cache:  tokenCache,
		now:    time.Now,
	}
}

func (s *tokenService) Issue(ctx context.Context, user *model.User) (string, error) {
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(uint64(user.ID), 10),
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", appErr.Internal(err, msgInternal)
	}

	record := &model.AuthToken{
		UserID: user.ID,
		Name:   model.DefaultTokenName,
		Digest: utils.TokenDigest(signed),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", appErr.Internal(err, msgInternal)
	}
	return signed, nil
}

func (s *tokenService) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrUnauthenticated
	}
	subject, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	digest := utils.TokenDigest(token)
	userID, err := s.lookupDigest(ctx, digest)
	if err != nil {
		return nil, err
	}
	if uint64(userID) != subject {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, appErr.Internal(err, msgInternal)
	}
	return user, nil
}

// lookupDigest consults the cache first. Cache failures fall through to the
// database, which stays authoritative.
func (s *tokenService) lookupDigest(ctx context.Context, digest string) (uint, error) {
	if s.cache != nil {
		id, found, err := s.cache.Get(ctx, digest)
		if err != nil {
			logger.L().Warn("token cache read failed", zap.Error(err))
		} else if found {
			return id, nil
		}
	}

	record, err := s.tokens.FindByDigest(ctx, digest)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnauthenticated
	}
	if err != nil {
		return 0, appErr.Internal(err, msgInternal)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, digest, record.UserID); err != nil {
			logger.L().Warn("token cache write failed", zap.Error(err))
		}
	}
	return record.UserID, nil
}
