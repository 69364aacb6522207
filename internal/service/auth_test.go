package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mishakov/blog_backend/internal/hash"
	"github.com/mishakov/blog_backend/internal/models"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/tokens"
)

func testCodec(t *testing.T) *tokens.Codec {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	codec, err := tokens.NewCodec(privPEM, pubPEM, "RS256")
	require.NoError(t, err)
	return codec
}

func newTestAuth(t *testing.T) (*AuthService, *repo.GormRepo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	store := &repo.GormRepo{DB: db}
	svc := &AuthService{
		Store:      store,
		Hasher:     hash.New(4),
		Codec:      testCodec(t),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	return svc, store
}

func createTestUser(t *testing.T, svc *AuthService, name, email, password string) *models.User {
	t.Helper()

	user, err := svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	return user
}

func TestLoginIssuesTokensAndPersistsRefresh(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	ctx := context.Background()
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	res, err := svc.Login(ctx, "alice", "pw123")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, alice.UUID, res.User.UUID)

	accessClaims, err := svc.Codec.Decode(res.AccessToken, true)
	require.NoError(t, err)
	assert.Equal(t, alice.UUID.String(), tokens.Subject(accessClaims))
	accessExp, err := accessClaims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), accessExp.Time, 5*time.Second)

	stored, err := store.GetRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)
	assert.Equal(t, res.RefreshToken, stored.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), stored.ExpiresAt, 5*time.Second)
}

func TestVerifyUserIdenticalErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	ctx := context.Background()
	createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	_, unknownErr := svc.VerifyUser(ctx, "nobody", "pw123")
	require.ErrorIs(t, unknownErr, ErrUnauthorized)

	_, badPwErr := svc.VerifyUser(ctx, "alice", "wrong")
	require.ErrorIs(t, badPwErr, ErrUnauthorized)

	assert.Equal(t, unknownErr.Error(), badPwErr.Error(), "unknown name and wrong password must be indistinguishable")
}

func TestVerifyAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	userID := uuid.New()

	token, err := svc.CreateAccessToken(userID)
	require.NoError(t, err)

	got, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyAccessTokenRejectsForeignKey(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)

	foreign := testCodec(t)
	token, err := foreign.Encode(uuid.NewString(), time.Now().Add(time.Minute), nil)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)

	token, err := svc.Codec.Encode(uuid.NewString(), time.Now().Add(-time.Second), nil)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyAccessTokenRejectsNonUUIDSubject(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)

	token, err := svc.Codec.Encode("not-a-uuid", time.Now().Add(time.Minute), nil)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRefreshTokenIssuesNewAccess(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	ctx := context.Background()
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	refresh, err := svc.CreateRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)

	access, err := svc.VerifyRefreshToken(ctx, refresh)
	require.NoError(t, err)

	got, err := svc.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, alice.UUID, got)

	// refresh is not rotated: the same token keeps working
	_, err = svc.VerifyRefreshToken(ctx, refresh)
	require.NoError(t, err)
}

func TestSecondRefreshTokenSupersedesFirst(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	ctx := context.Background()
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	first, err := svc.CreateRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)

	// tokens embed exp with second precision; make sure the second
	// token differs from the first
	time.Sleep(1100 * time.Millisecond)

	second, err := svc.CreateRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.VerifyRefreshToken(ctx, first)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.VerifyRefreshToken(ctx, second)
	assert.NoError(t, err)
}

func TestVerifyRefreshTokenChecksStoredExpiry(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	ctx := context.Background()
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	refresh, err := svc.CreateRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)

	// cryptographically the token is still valid; only the stored row
	// has expired, and that alone must reject the refresh
	require.NoError(t, store.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", alice.UUID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.VerifyRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRefreshTokenWithoutStoredRow(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := svc.Codec.Encode(uuid.NewString(), time.Now().Add(time.Hour), map[string]any{"typ": "refresh"})
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// A store outage is a server-side failure, not a credential problem;
// it must never surface as ErrUnauthorized.
func TestStoreFailureIsNotUnauthorized(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	ctx := context.Background()
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	refresh, err := svc.CreateRefreshToken(ctx, alice.UUID)
	require.NoError(t, err)

	sqlDB, err := store.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.VerifyUser(ctx, "alice", "pw123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	_, err = svc.VerifyRefreshToken(ctx, refresh)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	ctx := context.Background()
	createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	_, err := svc.Register(ctx, "alice", "new@example.com", "pw123")
	assert.ErrorIs(t, err, repo.ErrNameTaken)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "pw123")
	assert.ErrorIs(t, err, repo.ErrEmailTaken)
}

func TestRegisterHashesPassword(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	alice := createTestUser(t, svc, "alice", "alice@example.com", "pw123")

	stored, err := store.GetUserByUUID(context.Background(), alice.UUID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", stored.PasswordHash)
	assert.True(t, svc.Hasher.Check(stored.PasswordHash, "pw123"))
}
