package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mishakov/blog_backend/internal/hash"
	"github.com/mishakov/blog_backend/internal/logging"
	"github.com/mishakov/blog_backend/internal/models"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/tokens"
)

// ErrUnauthorized covers every authentication failure: unknown user,
// bad password, missing/expired/invalid token, missing subject. The
// caller never learns which one it was. Store failures are not
// authentication failures and pass through untouched.
var ErrUnauthorized = errors.New("unauthorized")

// CredentialStore is the persistence surface the auth core needs.
// GormRepo implements it.
type CredentialStore interface {
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetUserByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	UpsertRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, userID uuid.UUID) (*models.RefreshToken, error)
}

type AuthService struct {
	Store      CredentialStore
	Hasher     hash.Hasher
	Codec      *tokens.Codec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// VerifyUser checks the credentials. Unknown name and wrong password
// fail with the same error so names cannot be enumerated.
func (s *AuthService) VerifyUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Store.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !s.Hasher.Check(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) CreateAccessToken(userID uuid.UUID) (string, error) {
	return s.Codec.Encode(userID.String(), time.Now().Add(s.AccessTTL), nil)
}

// CreateRefreshToken signs a refresh token and overwrites the stored
// row for the user, superseding any earlier session.
func (s *AuthService) CreateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	expiresAt := time.Now().Add(s.RefreshTTL)
	token, err := s.Codec.Encode(userID.String(), expiresAt, map[string]any{"typ": "refresh"})
	if err != nil {
		return "", err
	}
	if err := s.Store.UpsertRefreshToken(ctx, userID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) VerifyAccessToken(token string) (uuid.UUID, error) {
	claims, err := s.Codec.Decode(token, true)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	sub := tokens.Subject(claims)
	if sub == "" {
		return uuid.Nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return userID, nil
}

// VerifyRefreshToken exchanges a refresh token for a fresh access
// token. Both the signed exp claim and the stored row must still be
// valid, and the presented token must be the one on record; a token
// superseded by a newer login fails here. The refresh token itself is
// not rotated.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.Codec.Decode(token, true)
	if err != nil {
		return "", ErrUnauthorized
	}
	sub := tokens.Subject(claims)
	if sub == "" {
		return "", ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return "", ErrUnauthorized
	}

	stored, err := s.Store.GetRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrRefreshNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if stored.Token != token || stored.ExpiresAt.Before(time.Now()) {
		return "", ErrUnauthorized
	}

	return s.CreateAccessToken(userID)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.VerifyUser(ctx, username, password)
	if err != nil {
		l.Warn("login_failed", "reason", "invalid credentials")
		return nil, err
	}

	accessToken, err := s.CreateAccessToken(user.UUID)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	refreshToken, err := s.CreateRefreshToken(ctx, user.UUID)
	if err != nil {
		l.Error("login_failed", "reason", "cannot issue refresh token", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user", user.UUID)
	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", name)

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user, err := s.Store.CreateUser(ctx, name, email, pwHash)
	if err != nil {
		l.Warn("register_failed", "error", err)
		return nil, err
	}

	l.Info("register_successful", "user", user.UUID)
	return user, nil
}
