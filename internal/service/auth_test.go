package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/stash/internal/db/dbtest"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/service"
	"github.com/templui/stash/internal/validation"
)

const testSecret = "test-secret"

type fakeResolver struct {
	identities map[string]model.Identity
}

func (f *fakeResolver) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeResolver) Resolve(_ context.Context, code string) (model.Identity, error) {
	identity, ok := f.identities[code]
	if !ok {
		return model.Identity{}, errors.New("bad code")
	}
	return identity, nil
}

func newAuthService(t *testing.T) (*service.AuthService, *repository.Store) {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))
	resolver := &fakeResolver{identities: map[string]model.Identity{
		"code-ada":     {Subject: "g-1", Email: "Ada@Example.com", Name: "Ada", AvatarURL: "https://img/ada.png"},
		"code-ada-new": {Subject: "g-1", Email: "ada@new.example.com", Name: "Countess"},
		"code-noname":  {Subject: "g-2", Email: "grace@example.com"},
		"code-nosub":   {Email: "ghost@example.com"},
	}}
	return service.NewAuthService(store.Accounts, resolver, nil, testSecret, 24*time.Hour, false), store
}

func TestAuthenticateCode(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuthService(t)

	account, token, err := auth.AuthenticateCode(ctx, "code-ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", account.DisplayName)
	assert.Equal(t, "ada@example.com", account.Email)
	assert.Equal(t, model.Money(0), account.TotalSaved)

	accountID, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, accountID)

	// Same subject, new profile: same account, profile unchanged.
	again, _, err := auth.AuthenticateCode(ctx, "code-ada-new")
	require.NoError(t, err)
	assert.Equal(t, account.ID, again.ID)
	assert.Equal(t, "Ada", again.DisplayName)
}

func TestAuthenticateCode_Failures(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuthService(t)

	_, _, err := auth.AuthenticateCode(ctx, "")
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, _, err = auth.AuthenticateCode(ctx, "unknown")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, _, err = auth.AuthenticateCode(ctx, "code-nosub")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestSignIn_NameFallback(t *testing.T) {
	auth, _ := newAuthService(t)

	account, _, err := auth.AuthenticateCode(context.Background(), "code-noname")
	require.NoError(t, err)
	assert.Equal(t, "grace", account.DisplayName)
}

func TestVerifyJWT(t *testing.T) {
	auth, _ := newAuthService(t)

	token, err := auth.GenerateJWT("acc-1")
	require.NoError(t, err)

	id, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)

	_, err = auth.VerifyJWT(token + "x")
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	_, err = auth.VerifyJWT("not-a-token")
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestVerifyJWT_RejectsExpiredAndForeign(t *testing.T) {
	auth, _ := newAuthService(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": "acc-1",
		"iat":        time.Now().Add(-48 * time.Hour).Unix(),
		"exp":        time.Now().Add(-24 * time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.VerifyJWT(signed)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": "acc-1",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	signed, err = foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = auth.VerifyJWT(signed)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"account_id": "acc-1"})
	signed, err = noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.VerifyJWT(signed)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	noAccount := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err = noAccount.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.VerifyJWT(signed)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestJWTCookie(t *testing.T) {
	auth, _ := newAuthService(t)

	rec := httptest.NewRecorder()
	auth.SetJWTCookie(rec, "tok", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, service.AuthCookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	rec = httptest.NewRecorder()
	auth.ClearJWTCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}
