package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/avelarde/comanda-backend/pkg/auth"
	"github.com/avelarde/comanda-backend/pkg/auth/session"
	"github.com/avelarde/comanda-backend/pkg/config"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
	"github.com/avelarde/comanda-backend/pkg/security"
)

type userReaderStub struct {
	user *models.User
}

func (s *userReaderStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type sessionStub struct {
	tokens     map[string]string
	generated  int
	revoked    []string
	rotateFail error
}

func newSessionStub() *sessionStub {
	return &sessionStub{tokens: map[string]string{}}
}

func (s *sessionStub) Generate(_ context.Context, accessID string) (string, error) {
	s.generated++
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *sessionStub) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateFail != nil {
		return "", "", s.rotateFail
	}
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.tokens[newID] = token
	return newID, token, nil
}

func (s *sessionStub) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.tokens, accessID)
	return nil
}

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "comanda-test",
	ExpirationMinutes: 15,
}

var testPassword = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPassword)
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Name:         "Dana",
		Email:        "dana@example.com",
		PasswordHash: hash,
		Role:         enums.StaffRoleAdmin,
		Active:       true,
	}
}

func newAuthService(t *testing.T, user *models.User) (Service, *sessionStub) {
	t.Helper()
	sessions := newSessionStub()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(&userReaderStub{user: user}, sessions, testJWT, logg)
	require.NoError(t, err)
	return svc, sessions
}

func TestLoginIssuesValidPair(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	svc, sessions := newAuthService(t, user)

	pair, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 1, sessions.generated)

	claims, err := pkgauth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.StaffRoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t, testUser(t, "s3cret-pass"))

	_, err := svc.Login(context.Background(), "dana@example.com", "wrong")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := newAuthService(t, testUser(t, "s3cret-pass"))

	_, wrongPass := svc.Login(context.Background(), "dana@example.com", "wrong")
	_, noUser := svc.Login(context.Background(), "nobody@example.com", "wrong")
	assert.Equal(t, wrongPass.Error(), noUser.Error())
}

func TestLoginDisabledAccount(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	user.Active = false
	svc, _ := newAuthService(t, user)

	_, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, sessions := newAuthService(t, testUser(t, "s3cret-pass"))

	pair, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	// the old pair is spent
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Len(t, sessions.tokens, 1)
}

func TestRefreshWithExpiredAccessToken(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	svc, sessions := newAuthService(t, user)

	accessID := session.NewAccessID()
	refreshToken, err := sessions.Generate(context.Background(), accessID)
	require.NoError(t, err)

	expired, err := pkgauth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), expired, refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestRefreshDependencyFailure(t *testing.T) {
	svc, sessions := newAuthService(t, testUser(t, "s3cret-pass"))

	pair, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	require.NoError(t, err)

	sessions.rotateFail = errors.New("redis down")
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, sessions := newAuthService(t, testUser(t, "s3cret-pass"))

	pair, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken))
	assert.Len(t, sessions.revoked, 1)
	assert.Empty(t, sessions.tokens)
}
